package couchbase

import (
	"context"
	"errors"
	"fmt"

	"github.com/couchbase/gocb/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"stealthcompany.com/healthdesk/internal/patients"
)

const (
	patientKeyPrefix = "patient::"
	claimKeyPrefix   = "patientId::"
	counterKey       = "counter::patientId"
	patientDocType   = "patient"
)

// patientDoc is the stored shape of a patient record: the domain fields plus
// a type discriminator, since counter, claim and lock documents share the
// default collection.
type patientDoc struct {
	Type string `json:"type"`
	patients.Patient
}

// claimDoc reserves a patientId. Its existence is the uniqueness constraint.
type claimDoc struct {
	Type      string `json:"type"`
	PatientID string `json:"patientId"`
	DocID     string `json:"docId"`
}

// PatientStore is the Couchbase-backed patients.Store. Documents are keyed
// patient::<uuid>; patientId uniqueness rides on KV Insert of claim
// documents; the id sequence is an atomic counter document.
type PatientStore struct {
	conn *ConnectionManager
	lock *MaintenanceLock
}

// NewPatientStore wraps an established connection. The holder name identifies
// this store against the maintenance lock: writes go through while the lock is
// held by the same name and are refused while another holder has it.
func NewPatientStore(conn *ConnectionManager, holder string) *PatientStore {
	return &PatientStore{
		conn: conn,
		lock: NewMaintenanceLock(conn.GetBucket(), holder),
	}
}

func (s *PatientStore) collection() *gocb.Collection {
	return s.conn.GetBucket().DefaultCollection()
}

// checkWritable refuses a write while another holder has the maintenance lock.
func (s *PatientStore) checkWritable() error {
	held, err := s.lock.HeldByOther()
	if err != nil {
		return fmt.Errorf("failed to check maintenance lock: %w", err)
	}
	if held {
		return patients.ErrMaintenance
	}
	return nil
}

func (s *PatientStore) Insert(ctx context.Context, p *patients.Patient) (*patients.Patient, error) {
	if err := s.checkWritable(); err != nil {
		return nil, err
	}
	col := s.collection()

	stored := *p
	stored.ID = uuid.NewString()

	if stored.PatientID != "" {
		claim := claimDoc{Type: "patientIdClaim", PatientID: stored.PatientID, DocID: stored.ID}
		_, err := col.Insert(claimKeyPrefix+stored.PatientID, claim, &gocb.InsertOptions{Context: ctx})
		if errors.Is(err, gocb.ErrDocumentExists) {
			return nil, patients.ErrDuplicatePatientID
		}
		if err != nil {
			return nil, fmt.Errorf("failed to claim patientId %s: %w", stored.PatientID, err)
		}
	}

	doc := patientDoc{Type: patientDocType, Patient: stored}
	if _, err := col.Insert(patientKeyPrefix+stored.ID, doc, &gocb.InsertOptions{Context: ctx}); err != nil {
		// Give the claim back so the id is not burned by a failed insert.
		if stored.PatientID != "" {
			if _, rmErr := col.Remove(claimKeyPrefix+stored.PatientID, &gocb.RemoveOptions{Context: ctx}); rmErr != nil {
				log.Error().Err(rmErr).Str("patientId", stored.PatientID).Msg("Failed to release patientId claim")
			}
		}
		return nil, fmt.Errorf("failed to insert patient: %w", err)
	}

	return &stored, nil
}

func (s *PatientStore) FindAll(ctx context.Context) ([]patients.Patient, error) {
	statement := fmt.Sprintf(
		"SELECT p.* FROM `%s` p WHERE p.`type` = %q",
		s.conn.GetBucketName(), patientDocType,
	)

	rows, err := s.conn.GetCluster().Query(statement, &gocb.QueryOptions{
		Context:         ctx,
		ScanConsistency: gocb.QueryScanConsistencyRequestPlus,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query patients: %w", err)
	}
	defer rows.Close()

	out := make([]patients.Patient, 0)
	for rows.Next() {
		var doc patientDoc
		if err := rows.Row(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan patient row: %w", err)
		}
		out = append(out, doc.Patient)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("patient query failed: %w", err)
	}
	return out, nil
}

func (s *PatientStore) FindMaxPatientID(ctx context.Context) (string, error) {
	statement := fmt.Sprintf(
		"SELECT MAX(p.patientId) AS max FROM `%s` p WHERE p.`type` = %q AND p.patientId IS NOT MISSING",
		s.conn.GetBucketName(), patientDocType,
	)

	rows, err := s.conn.GetCluster().Query(statement, &gocb.QueryOptions{
		Context:         ctx,
		ScanConsistency: gocb.QueryScanConsistencyRequestPlus,
	})
	if err != nil {
		return "", fmt.Errorf("failed to query max patientId: %w", err)
	}
	defer rows.Close()

	var row struct {
		Max *string `json:"max"`
	}
	if rows.Next() {
		if err := rows.Row(&row); err != nil {
			return "", fmt.Errorf("failed to scan max patientId: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("max patientId query failed: %w", err)
	}
	if row.Max == nil {
		return "", nil
	}
	return *row.Max, nil
}

func (s *PatientStore) NextPatientID(ctx context.Context) (string, error) {
	col := s.collection()

	// Seed the counter from the stored maximum the first time through.
	// Increment only honors Initial when the counter document is missing,
	// so two racing first calls still hand out distinct numbers.
	initial := int64(1)
	exists, err := col.Exists(counterKey, &gocb.ExistsOptions{Context: ctx})
	if err != nil {
		return "", fmt.Errorf("failed to check id counter: %w", err)
	}
	if !exists.Exists() {
		max, err := s.FindMaxPatientID(ctx)
		if err != nil {
			return "", err
		}
		initial = int64(patients.ParsePatientID(max)) + 1
	}

	res, err := col.Binary().Increment(counterKey, &gocb.IncrementOptions{
		Context: ctx,
		Initial: initial,
		Delta:   1,
	})
	if err != nil {
		return "", fmt.Errorf("failed to increment id counter: %w", err)
	}
	return patients.FormatPatientID(int(res.Content())), nil
}

func (s *PatientStore) UpdateByID(ctx context.Context, id string, fields patients.Patient) (*patients.Patient, error) {
	if err := s.checkWritable(); err != nil {
		return nil, err
	}
	col := s.collection()

	result, err := col.Get(patientKeyPrefix+id, &gocb.GetOptions{Context: ctx})
	if errors.Is(err, gocb.ErrDocumentNotFound) {
		return nil, patients.ErrPatientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get patient %s: %w", id, err)
	}

	var existing patientDoc
	if err := result.Content(&existing); err != nil {
		return nil, fmt.Errorf("failed to parse patient %s: %w", id, err)
	}

	updated := fields
	updated.ID = id
	if updated.PatientID == "" {
		updated.PatientID = existing.PatientID
	}

	if updated.PatientID != existing.PatientID {
		claim := claimDoc{Type: "patientIdClaim", PatientID: updated.PatientID, DocID: id}
		_, err := col.Insert(claimKeyPrefix+updated.PatientID, claim, &gocb.InsertOptions{Context: ctx})
		if errors.Is(err, gocb.ErrDocumentExists) {
			return nil, patients.ErrDuplicatePatientID
		}
		if err != nil {
			return nil, fmt.Errorf("failed to claim patientId %s: %w", updated.PatientID, err)
		}
	}

	doc := patientDoc{Type: patientDocType, Patient: updated}
	if _, err := col.Replace(patientKeyPrefix+id, doc, &gocb.ReplaceOptions{Context: ctx}); err != nil {
		// Give the new claim back so the id is not burned by a failed replace.
		if updated.PatientID != existing.PatientID {
			if _, rmErr := col.Remove(claimKeyPrefix+updated.PatientID, &gocb.RemoveOptions{Context: ctx}); rmErr != nil {
				log.Error().Err(rmErr).Str("patientId", updated.PatientID).Msg("Failed to release patientId claim")
			}
		}
		return nil, fmt.Errorf("failed to replace patient %s: %w", id, err)
	}

	if updated.PatientID != existing.PatientID && existing.PatientID != "" {
		if _, err := col.Remove(claimKeyPrefix+existing.PatientID, &gocb.RemoveOptions{Context: ctx}); err != nil {
			log.Error().Err(err).Str("patientId", existing.PatientID).Msg("Failed to release replaced patientId claim")
		}
	}

	return &updated, nil
}

func (s *PatientStore) DeleteByID(ctx context.Context, id string) error {
	if err := s.checkWritable(); err != nil {
		return err
	}
	col := s.collection()

	result, err := col.Get(patientKeyPrefix+id, &gocb.GetOptions{Context: ctx})
	if errors.Is(err, gocb.ErrDocumentNotFound) {
		return patients.ErrPatientNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get patient %s: %w", id, err)
	}

	var existing patientDoc
	if err := result.Content(&existing); err != nil {
		return fmt.Errorf("failed to parse patient %s: %w", id, err)
	}

	if _, err := col.Remove(patientKeyPrefix+id, &gocb.RemoveOptions{Context: ctx}); err != nil {
		if errors.Is(err, gocb.ErrDocumentNotFound) {
			return patients.ErrPatientNotFound
		}
		return fmt.Errorf("failed to delete patient %s: %w", id, err)
	}

	if existing.PatientID != "" {
		if _, err := col.Remove(claimKeyPrefix+existing.PatientID, &gocb.RemoveOptions{Context: ctx}); err != nil {
			log.Error().Err(err).Str("patientId", existing.PatientID).Msg("Failed to release deleted patientId claim")
		}
	}
	return nil
}

func (s *PatientStore) UnderMaintenance(_ context.Context) (bool, error) {
	return s.lock.Status()
}

// Close closes the underlying connection.
func (s *PatientStore) Close() error {
	return s.conn.Close()
}
