package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Cryptobal/gardops-api/internal/models"
	"github.com/Cryptobal/gardops-api/pkg/export"
	"github.com/Cryptobal/gardops-api/pkg/storage"
)

type exportRosterSource interface {
	MonthRows(ctx context.Context, installationID string, year, month int) ([]models.RosterRow, error)
}

type exportLedgerSource interface {
	List(ctx context.Context, filter models.ExtraShiftFilter) ([]models.ExtraShiftEntry, int, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ExportFormat
	ExpiresAt    time.Time
}

// ExportService builds roster and payroll datasets and persists rendered
// files behind signed download URLs.
type ExportService struct {
	roster  exportRosterSource
	ledger  exportLedgerSource
	storage fileStorage
	csv     csvRenderer
	pdf     pdfRenderer
	signer  *storage.SignedURLSigner
	logger  *zap.Logger
	cfg     ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(roster exportRosterSource, ledger exportLedgerSource, store fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		roster:  roster,
		ledger:  ledger,
		storage: store,
		csv:     csv,
		pdf:     pdf,
		signer:  signer,
		logger:  logger,
		cfg:     cfg,
	}
}

// Generate builds the dataset for the job and stores the rendered export.
func (s *ExportService) Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	dataset, title, err := s.buildDataset(ctx, job)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch job.Params.Format {
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	if err != nil {
		return nil, err
	}

	filename := s.buildFilename(job)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	signedURL := fmt.Sprintf("%s/exports/download/%s", prefix, token)

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          signedURL,
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl, defaulting to the configured TTL.
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(job *models.ExportJob) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	instPart := sanitizeFilename(job.Params.InstallationID)
	return fmt.Sprintf("%s_%s_%04d-%02d_%s.%s",
		strings.ToLower(string(job.Type)), instPart, job.Params.Year, job.Params.Month, timestamp, job.Params.Format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func (s *ExportService) buildDataset(ctx context.Context, job *models.ExportJob) (export.Dataset, string, error) {
	switch job.Type {
	case models.ExportTypeRoster:
		return s.buildRosterDataset(ctx, job.Params)
	case models.ExportTypePayroll:
		return s.buildPayrollDataset(ctx, job.Params)
	default:
		return export.Dataset{}, "", fmt.Errorf("unsupported export type %s", job.Type)
	}
}

func (s *ExportService) buildRosterDataset(ctx context.Context, params models.ExportJobParams) (export.Dataset, string, error) {
	rows, err := s.roster.MonthRows(ctx, params.InstallationID, params.Year, params.Month)
	if err != nil {
		return export.Dataset{}, "", err
	}
	dataRows := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		dataRows = append(dataRows, map[string]string{
			"Post":     row.PostName,
			"Guard":    derefString(row.GuardID),
			"Date":     row.Date().Format("2006-01-02"),
			"State":    string(row.State),
			"Coverage": row.Meta[models.MetaCoverageGuard],
			"Comment":  row.Meta[models.MetaComment],
		})
	}
	dataset := export.Dataset{
		Headers: []string{"Post", "Guard", "Date", "State", "Coverage", "Comment"},
		Rows:    dataRows,
	}
	title := fmt.Sprintf("Pauta Mensual %04d-%02d", params.Year, params.Month)
	return dataset, title, nil
}

func (s *ExportService) buildPayrollDataset(ctx context.Context, params models.ExportJobParams) (export.Dataset, string, error) {
	from := time.Date(params.Year, time.Month(params.Month), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, -1)
	unpaid := false
	entries, _, err := s.ledger.List(ctx, models.ExtraShiftFilter{
		InstallationID: params.InstallationID,
		DateFrom:       &from,
		DateTo:         &to,
		Paid:           &unpaid,
		PageSize:       10000,
	})
	if err != nil {
		return export.Dataset{}, "", err
	}
	dataRows := make([]map[string]string, 0, len(entries))
	for _, entry := range entries {
		dataRows = append(dataRows, map[string]string{
			"Date":           entry.Date.Format("2006-01-02"),
			"Post ID":        entry.PostID,
			"Origin":         string(entry.Origin),
			"Title Holder":   derefString(entry.TitleHolderID),
			"Coverage Guard": entry.CoverageGuardID,
			"Amount":         entry.Amount.StringFixed(2),
		})
	}
	dataset := export.Dataset{
		Headers: []string{"Date", "Post ID", "Origin", "Title Holder", "Coverage Guard", "Amount"},
		Rows:    dataRows,
	}
	title := fmt.Sprintf("Turnos Extra %04d-%02d", params.Year, params.Month)
	return dataset, title, nil
}

func derefString(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}
