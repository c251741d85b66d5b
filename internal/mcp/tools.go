// ABOUTME: MCP tool implementations for imports, biometrics, doses and analysis.
// ABOUTME: Each handler delegates to the tracker service or the importer.
package mcp

import (
	"context"
	"fmt"

	"github.com/djtroymx1/PepMetrics-sub000/internal/analysis"
	"github.com/djtroymx1/PepMetrics-sub000/internal/garmin"
	"github.com/djtroymx1/PepMetrics-sub000/internal/importer"
	"github.com/djtroymx1/PepMetrics-sub000/internal/models"
	"github.com/djtroymx1/PepMetrics-sub000/internal/tracker"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// defaultListDays is how far back list_daily_summaries looks without a from date.
const defaultListDays = 14

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "import_garmin_file",
		Description: "Import a Garmin export zip, activity CSV, FIT or JSON file from disk",
	}, s.handleImportGarminFile)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_daily_summaries",
		Description: "List merged daily biometric rows (sleep, HRV, resting HR, stress, body battery, steps)",
	}, s.handleListDailySummaries)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "log_dose",
		Description: "Record a taken or skipped dose for a protocol",
	}, s.handleLogDose)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "undo_dose",
		Description: "Remove a logged dose so it is due again",
	}, s.handleUndoDose)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_due_doses",
		Description: "List doses still due today and protocols that are overdue",
	}, s.handleListDueDoses)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "analyze_week",
		Description: "Compare a week of biometrics against the 28-day baseline and correlate with doses",
	}, s.handleAnalyzeWeek)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "validate_data",
		Description: "Check whether there is enough data for reliable analysis",
	}, s.handleValidateData)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_protocols",
		Description: "List peptide protocols with their schedules",
	}, s.handleListProtocols)
}

// Tool input/output types

type importInput struct {
	Path       string `json:"path" jsonschema:"Path to the Garmin export file"`
	TargetDays int    `json:"target_days,omitempty" jsonschema:"Only import archive data from the last N days (default 90)"`
	Kilometers bool   `json:"kilometers,omitempty" jsonschema:"Treat unitless CSV distances as kilometers instead of miles"`
}

type importOutput struct {
	Success            bool              `json:"success"`
	Kind               importer.Kind     `json:"kind"`
	Message            string            `json:"message"`
	FilesScanned       int               `json:"files_scanned"`
	FilesParsed        int               `json:"files_parsed"`
	DataTypes          []garmin.DataType `json:"data_types,omitempty"`
	DaysSaved          int               `json:"days_saved"`
	ActivitiesInserted int               `json:"activities_inserted"`
	ActivitiesUpdated  int               `json:"activities_updated"`
	Errors             []string          `json:"errors,omitempty"`
	ErrorCount         int               `json:"error_count"`
}

type listDailyInput struct {
	From string `json:"from,omitempty" jsonschema:"Start date YYYY-MM-DD (default 14 days ago)"`
	To   string `json:"to,omitempty" jsonschema:"End date YYYY-MM-DD (default today)"`
}

type listDailyOutput struct {
	Count int                         `json:"count"`
	Days  []models.DailyHealthSummary `json:"days"`
}

type logDoseInput struct {
	Protocol   string `json:"protocol" jsonschema:"Protocol ID or ID prefix"`
	Date       string `json:"date,omitempty" jsonschema:"Scheduled date YYYY-MM-DD, today or yesterday (default today)"`
	Status     string `json:"status,omitempty" jsonschema:"taken or skipped (default taken)"`
	DoseNumber int    `json:"dose_number,omitempty" jsonschema:"Which of the day's doses (default 1)"`
	Notes      string `json:"notes,omitempty" jsonschema:"Optional notes"`
}

type doseOutput struct {
	ID         string `json:"id"`
	Peptide    string `json:"peptide"`
	Date       string `json:"date"`
	DoseNumber int    `json:"dose_number"`
	Status     string `json:"status"`
	Message    string `json:"message"`
}

type undoDoseInput struct {
	Protocol   string `json:"protocol" jsonschema:"Protocol ID or ID prefix"`
	Date       string `json:"date,omitempty" jsonschema:"Scheduled date YYYY-MM-DD (default today)"`
	DoseNumber int    `json:"dose_number,omitempty" jsonschema:"Which of the day's doses (default 1)"`
}

type simpleOutput struct {
	Message string `json:"message"`
}

type emptyInput struct{}

type dueItem struct {
	ProtocolID string `json:"protocol_id"`
	Peptide    string `json:"peptide"`
	Dose       string `json:"dose"`
	DoseNumber int    `json:"dose_number"`
}

type dueOutput struct {
	Date    string    `json:"date"`
	Due     []dueItem `json:"due"`
	Overdue []string  `json:"overdue"`
	Message string    `json:"message"`
}

type analyzeInput struct {
	WeekEnd string `json:"week_end,omitempty" jsonschema:"Last day of the analysis week YYYY-MM-DD (default today)"`
}

type analyzeOutput struct {
	Report   *analysis.Report `json:"report"`
	Markdown string           `json:"markdown"`
}

type listProtocolsInput struct {
	ActiveOnly bool `json:"active_only,omitempty" jsonschema:"Only list active protocols"`
}

type protocolItem struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Peptide   string `json:"peptide"`
	Dose      string `json:"dose"`
	Schedule  string `json:"schedule"`
	Status    string `json:"status"`
	StartDate string `json:"start_date"`
}

type listProtocolsOutput struct {
	Count     int            `json:"count"`
	Protocols []protocolItem `json:"protocols"`
}

// Tool handlers

func (s *Server) handleImportGarminFile(ctx context.Context, req *mcp.CallToolRequest, input importInput) (*mcp.CallToolResult, importOutput, error) {
	if input.Path == "" {
		return nil, importOutput{}, fmt.Errorf("path is required")
	}

	opts := s.importOpts
	if input.TargetDays > 0 {
		opts.TargetDays = input.TargetDays
	}
	if input.Kilometers {
		opts.CSV.AssumeMiles = false
	}

	res, err := importer.New(s.svc.Repo(), opts).ImportPath(ctx, input.Path)
	if err != nil {
		return nil, importOutput{}, fmt.Errorf("failed to import %s: %w", input.Path, err)
	}

	return nil, importOutput{
		Success:            res.Success,
		Kind:               res.Kind,
		Message:            res.Message,
		FilesScanned:       res.FilesScanned,
		FilesParsed:        res.FilesParsed,
		DataTypes:          res.DataTypes,
		DaysSaved:          res.DaysSaved,
		ActivitiesInserted: res.ActivitiesInserted,
		ActivitiesUpdated:  res.ActivitiesUpdated,
		Errors:             res.Errors,
		ErrorCount:         res.ErrorCount,
	}, nil
}

func (s *Server) handleListDailySummaries(ctx context.Context, req *mcp.CallToolRequest, input listDailyInput) (*mcp.CallToolResult, listDailyOutput, error) {
	from, err := s.svc.ParseDay(input.From)
	if err != nil {
		return nil, listDailyOutput{}, err
	}
	to, err := s.svc.ParseDay(input.To)
	if err != nil {
		return nil, listDailyOutput{}, err
	}
	if to.IsZero() {
		to = s.svc.Today()
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -(defaultListDays - 1))
	}

	days, err := s.svc.Repo().ListDailySummaries(s.svc.UserID(), from, to)
	if err != nil {
		return nil, listDailyOutput{}, fmt.Errorf("failed to list daily summaries: %w", err)
	}
	if days == nil {
		days = []models.DailyHealthSummary{}
	}

	return nil, listDailyOutput{Count: len(days), Days: days}, nil
}

func (s *Server) handleLogDose(ctx context.Context, req *mcp.CallToolRequest, input logDoseInput) (*mcp.CallToolResult, doseOutput, error) {
	day, err := s.svc.ParseDay(input.Date)
	if err != nil {
		return nil, doseOutput{}, err
	}
	status := models.DoseTaken
	if input.Status != "" {
		status = models.DoseStatus(input.Status)
	}

	dl, err := s.svc.RecordDose(tracker.DoseRequest{
		Protocol:   input.Protocol,
		Day:        day,
		DoseNumber: input.DoseNumber,
		Status:     status,
		Notes:      input.Notes,
	})
	if err != nil {
		return nil, doseOutput{}, fmt.Errorf("failed to log dose: %w", err)
	}

	return nil, doseOutput{
		ID:         dl.ID.String()[:8],
		Peptide:    dl.PeptideName,
		Date:       dl.Date(),
		DoseNumber: dl.DoseNumber,
		Status:     string(dl.Status),
		Message:    fmt.Sprintf("Marked %s dose #%d on %s as %s", dl.PeptideName, dl.DoseNumber, dl.Date(), dl.Status),
	}, nil
}

func (s *Server) handleUndoDose(ctx context.Context, req *mcp.CallToolRequest, input undoDoseInput) (*mcp.CallToolResult, simpleOutput, error) {
	day, err := s.svc.ParseDay(input.Date)
	if err != nil {
		return nil, simpleOutput{}, err
	}
	if day.IsZero() {
		day = s.svc.Today()
	}

	p, err := s.svc.UndoDose(input.Protocol, day, input.DoseNumber)
	if err != nil {
		return nil, simpleOutput{}, fmt.Errorf("failed to undo dose: %w", err)
	}

	return nil, simpleOutput{
		Message: fmt.Sprintf("Removed %s dose on %s", p.PeptideName, day.Format(models.DateLayout)),
	}, nil
}

func (s *Server) handleListDueDoses(ctx context.Context, req *mcp.CallToolRequest, input emptyInput) (*mcp.CallToolResult, dueOutput, error) {
	due, err := s.svc.DueToday()
	if err != nil {
		return nil, dueOutput{}, fmt.Errorf("failed to list due doses: %w", err)
	}
	overdue, err := s.svc.Overdue()
	if err != nil {
		return nil, dueOutput{}, fmt.Errorf("failed to list overdue protocols: %w", err)
	}

	out := dueOutput{
		Date:    s.svc.Today().Format(models.DateLayout),
		Due:     []dueItem{},
		Overdue: []string{},
	}
	for _, d := range due {
		out.Due = append(out.Due, dueItem{
			ProtocolID: d.Protocol.ID.String()[:8],
			Peptide:    d.Protocol.PeptideName,
			Dose:       d.Protocol.Dose,
			DoseNumber: d.DoseNumber,
		})
	}
	for _, p := range overdue {
		out.Overdue = append(out.Overdue, p.PeptideName)
	}

	switch {
	case len(out.Due) == 0 && len(out.Overdue) == 0:
		out.Message = "All caught up."
	default:
		out.Message = fmt.Sprintf("%d dose(s) due today, %d protocol(s) overdue", len(out.Due), len(out.Overdue))
	}
	return nil, out, nil
}

func (s *Server) handleAnalyzeWeek(ctx context.Context, req *mcp.CallToolRequest, input analyzeInput) (*mcp.CallToolResult, analyzeOutput, error) {
	weekEnd, err := s.svc.ParseDay(input.WeekEnd)
	if err != nil {
		return nil, analyzeOutput{}, err
	}

	r, err := s.svc.Report(weekEnd)
	if err != nil {
		return nil, analyzeOutput{}, fmt.Errorf("failed to analyze week: %w", err)
	}

	return nil, analyzeOutput{Report: r, Markdown: r.Markdown()}, nil
}

func (s *Server) handleValidateData(ctx context.Context, req *mcp.CallToolRequest, input emptyInput) (*mcp.CallToolResult, analysis.ValidationResult, error) {
	v, err := s.svc.Validate()
	if err != nil {
		return nil, analysis.ValidationResult{}, fmt.Errorf("failed to validate data: %w", err)
	}
	return nil, v, nil
}

func (s *Server) handleListProtocols(ctx context.Context, req *mcp.CallToolRequest, input listProtocolsInput) (*mcp.CallToolResult, listProtocolsOutput, error) {
	protocols, err := s.svc.Repo().ListProtocols(s.svc.UserID(), input.ActiveOnly)
	if err != nil {
		return nil, listProtocolsOutput{}, fmt.Errorf("failed to list protocols: %w", err)
	}

	out := listProtocolsOutput{Protocols: []protocolItem{}}
	for _, p := range protocols {
		out.Protocols = append(out.Protocols, protocolItem{
			ID:        p.ID.String()[:8],
			Name:      p.Name,
			Peptide:   p.PeptideName,
			Dose:      p.Dose,
			Schedule:  p.ScheduleSummary(),
			Status:    string(p.Status),
			StartDate: p.StartDate.Format(models.DateLayout),
		})
	}
	out.Count = len(out.Protocols)
	return nil, out, nil
}
