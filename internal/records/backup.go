package records

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/2beens/progressboard/internal/telemetry/metrics"
	"github.com/2beens/progressboard/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const (
	recordsFileChunkSize = 350 // number of records in one backup file
	driveFolderMimeType  = "application/vnd.google-apps.folder"
)

type BackupFile struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

type recordsSinceLister interface {
	ListUpdatedSince(ctx context.Context, since time.Time) ([]Record, error)
}

type backupStore interface {
	ListFiles(ctx context.Context) ([]BackupFile, error)
	CreateFile(ctx context.Context, name string, content []byte) error
}

// BackupService exports records written since the newest existing backup file
// as JSON chunks. The first run exports everything.
type BackupService struct {
	repo           recordsSinceLister
	store          backupStore
	metricsManager *metrics.Manager
}

func NewBackupService(repo recordsSinceLister, store backupStore, metricsManager *metrics.Manager) *BackupService {
	return &BackupService{
		repo:           repo,
		store:          store,
		metricsManager: metricsManager,
	}
}

// DoBackup returns the number of backed up records.
func (s *BackupService) DoBackup(ctx context.Context, baseTime time.Time) (_ int, err error) {
	ctx, span := tracing.GlobalBackupTracer.Start(ctx, "records.backup")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	start := time.Now()

	existing, err := s.store.ListFiles(ctx)
	if err != nil {
		return 0, fmt.Errorf("list backup files: %w", err)
	}

	lastCreatedAt := time.Time{}
	for _, file := range existing {
		log.Tracef(" -- [%v]: %s (%s)", file.CreatedAt, file.Name, file.ID)
		if file.CreatedAt.After(lastCreatedAt) {
			lastCreatedAt = file.CreatedAt
		}
	}

	toBackup, err := s.repo.ListUpdatedSince(ctx, lastCreatedAt)
	if err != nil {
		return 0, fmt.Errorf("get records to backup: %w", err)
	}
	span.SetAttributes(attribute.Int("records.count", len(toBackup)))

	if len(toBackup) == 0 {
		log.Println("no new weekly records to backup, done")
		return 0, nil
	}

	prefix := "weekly-records"
	if len(existing) == 0 {
		prefix = "initial"
	}
	baseFileName := uniqueBaseName(
		fmt.Sprintf("%s-%d-%d-%d", prefix, baseTime.Day(), baseTime.Month(), baseTime.Year()),
		existing,
	)

	log.Printf("backing up %d weekly records since %v into %s", len(toBackup), lastCreatedAt, baseFileName)
	if err := s.backupRecords(ctx, toBackup, baseFileName); err != nil {
		return 0, err
	}

	if s.metricsManager != nil {
		s.metricsManager.CounterRecordsBackedUp.Add(float64(len(toBackup)))
		s.metricsManager.HistBackupDuration.Observe(time.Since(start).Seconds())
	}

	return len(toBackup), nil
}

func (s *BackupService) backupRecords(ctx context.Context, recs []Record, baseFileName string) error {
	for i, from := 1, 0; from < len(recs); i, from = i+1, from+recordsFileChunkSize {
		to := min(from+recordsFileChunkSize, len(recs))
		nextFileName := fmt.Sprintf("%s_%d.json", baseFileName, i)

		chunkJson, err := json.Marshal(recs[from:to])
		if err != nil {
			return fmt.Errorf("%s: marshal records: %w", nextFileName, err)
		}

		if err := s.store.CreateFile(ctx, nextFileName, chunkJson); err != nil {
			return fmt.Errorf("%s: create backup file: %w", nextFileName, err)
		}
		log.Debugf("%s: saved %d records [from %d to %d]", nextFileName, to-from, from, to)
	}
	return nil
}

func uniqueBaseName(base string, existing []BackupFile) string {
	taken := make(map[string]bool, len(existing))
	for _, f := range existing {
		taken[f.Name] = true
	}

	name := base
	for counter := 2; taken[name+"_1.json"]; counter++ {
		name = fmt.Sprintf("%s-%d", base, counter)
	}
	return name
}

// GoogleDriveStore keeps backup files in one Google Drive folder.
type GoogleDriveStore struct {
	service   *drive.Service
	folderID  string
	shareWith string
}

// NewGoogleDriveStore finds the backups folder by name and creates it when
// missing. When shareWith is set, every created file gets a reader permission
// for that address.
func NewGoogleDriveStore(ctx context.Context, credentialsJson []byte, folderName, shareWith string) (*GoogleDriveStore, error) {
	driveService, err := drive.NewService(ctx, option.WithCredentialsJSON(credentialsJson))
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve drive client: %w", err)
	}

	s := &GoogleDriveStore{
		service:   driveService,
		shareWith: shareWith,
	}

	folderQuery := fmt.Sprintf("mimeType = '%s' and trashed = false and name = '%s'", driveFolderMimeType, folderName)
	folders, err := driveService.Files.List().
		Q(folderQuery).
		Fields("files(id, name)").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve files: %w", err)
	}

	switch len(folders.Files) {
	case 0:
		log.Println("backups folder not found, creating ...")
		if s.folderID, err = s.createFolder(ctx, folderName); err != nil {
			return nil, fmt.Errorf("create backups folder: %w", err)
		}
	case 1:
		s.folderID = folders.Files[0].Id
	default:
		log.Warnf("found %d backups folders named %s, using the first one", len(folders.Files), folderName)
		s.folderID = folders.Files[0].Id
	}

	log.Printf("using backups folder: %s", s.folderID)
	return s, nil
}

func (s *GoogleDriveStore) ListFiles(ctx context.Context) ([]BackupFile, error) {
	query := fmt.Sprintf("'%s' in parents and mimeType != '%s' and trashed = false", s.folderID, driveFolderMimeType)
	res, err := s.service.Files.List().
		Q(query).
		Fields("files(id, name, createdTime)").
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}

	files := make([]BackupFile, 0, len(res.Files))
	for _, f := range res.Files {
		createdAt, err := time.Parse(time.RFC3339, f.CreatedTime)
		if err != nil {
			log.Errorf("parse created time of backup file %s: %s", f.Name, err)
			continue
		}
		files = append(files, BackupFile{ID: f.Id, Name: f.Name, CreatedAt: createdAt})
	}
	return files, nil
}

func (s *GoogleDriveStore) CreateFile(ctx context.Context, name string, content []byte) error {
	created, err := s.service.Files.Create(&drive.File{
		Name:     name,
		MimeType: "application/json",
		Parents:  []string{s.folderID},
	}).
		Fields("id").
		Media(bytes.NewReader(content)).
		Context(ctx).
		Do()
	if err != nil {
		return err
	}
	return s.share(ctx, created.Id)
}

func (s *GoogleDriveStore) createFolder(ctx context.Context, name string) (string, error) {
	folder, err := s.service.Files.Create(&drive.File{
		Name:     name,
		MimeType: driveFolderMimeType,
	}).
		Fields("id").
		Context(ctx).
		Do()
	if err != nil {
		return "", err
	}
	return folder.Id, s.share(ctx, folder.Id)
}

func (s *GoogleDriveStore) share(ctx context.Context, fileID string) error {
	if s.shareWith == "" {
		return nil
	}
	_, err := s.service.Permissions.Create(fileID, &drive.Permission{
		EmailAddress: s.shareWith,
		Type:         "user",
		Role:         "reader",
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("share %s: %w", fileID, err)
	}
	return nil
}
