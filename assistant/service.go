package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-vendorgate/core"
)

const (
	DefaultMaxRecords = 20
	MaxMessageLength  = 4000
)

const systemPreamble = `You are a sales research assistant. Answer using the saved leads and companies listed below.
If the answer is not in the saved data, say so instead of guessing.`

// RecordReader supplies the saved data used to ground replies.
type RecordReader interface {
	ListLeads(ctx context.Context, filter core.RecordFilter) (core.SavedLeadPage, error)
	ListCompanies(ctx context.Context, filter core.RecordFilter) (core.SavedCompanyPage, error)
}

type ChatRequest struct {
	Message string `json:"message"`
}

type ChatResponse struct {
	Reply     string `json:"reply"`
	Provider  string `json:"provider"`
	Model     string `json:"model"`
	Leads     int    `json:"grounded_leads"`
	Companies int    `json:"grounded_companies"`
}

// NewCompleter picks the provider client named in cfg. A missing key is a
// MissingCredential error naming the variable to set.
func NewCompleter(cfg core.AssistantConfig, opts ClientOptions) (Completer, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider == "" {
		provider = core.AssistantProviderOpenAI
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, core.MissingCredentialError(core.Vendor(provider), core.EnvAssistantAPIKey)
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = cfg.MaxTokens
	}
	switch provider {
	case core.AssistantProviderOpenAI:
		return NewOpenAICompleter(cfg.APIKey, cfg.Model, opts), nil
	case core.AssistantProviderAnthropic:
		return NewAnthropicCompleter(cfg.APIKey, cfg.Model, opts), nil
	default:
		return nil, core.BadRequestError(fmt.Sprintf("assistant provider %q is not supported", provider), nil)
	}
}

type ServiceConfig struct {
	Completer  Completer
	Records    RecordReader
	MaxRecords int
	// CompleterErr is returned from Chat when no completer could be built.
	CompleterErr error
	Logger       core.Logger
}

type Service struct {
	completer    Completer
	completerErr error
	records      RecordReader
	maxRecords   int
	ops          core.OperationLogger
}

func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Records == nil {
		return nil, fmt.Errorf("assistant: record reader is required")
	}
	if cfg.Completer == nil && cfg.CompleterErr == nil {
		return nil, fmt.Errorf("assistant: completer or completer error is required")
	}
	maxRecords := cfg.MaxRecords
	if maxRecords <= 0 {
		maxRecords = DefaultMaxRecords
	}
	if maxRecords > core.MaxRecordsPerPage {
		maxRecords = core.MaxRecordsPerPage
	}
	return &Service{
		completer:    cfg.Completer,
		completerErr: cfg.CompleterErr,
		records:      cfg.Records,
		maxRecords:   maxRecords,
		ops:          core.NewOperationLogger(core.ResolveLogger("vendorgate.assistant", nil, cfg.Logger)),
	}, nil
}

func (s *Service) Chat(ctx context.Context, req ChatRequest) (resp ChatResponse, err error) {
	startedAt := time.Now()
	fields := map[string]any{}
	defer func() {
		s.ops.Observe(ctx, startedAt, "assistant_chat", err, fields)
	}()

	message := strings.TrimSpace(req.Message)
	if message == "" {
		return ChatResponse{}, core.BadRequestError("message is required", nil)
	}
	if len(message) > MaxMessageLength {
		return ChatResponse{}, core.BadRequestError(
			fmt.Sprintf("message exceeds %d characters", MaxMessageLength),
			map[string]any{"length": len(message)},
		)
	}
	if s.completer == nil {
		return ChatResponse{}, s.completerErr
	}
	fields["provider"] = s.completer.Provider()
	fields["model"] = s.completer.Model()

	filter := core.RecordFilter{Page: 1, PerPage: s.maxRecords}
	leads, err := s.records.ListLeads(ctx, filter)
	if err != nil {
		return ChatResponse{}, err
	}
	companies, err := s.records.ListCompanies(ctx, filter)
	if err != nil {
		return ChatResponse{}, err
	}
	fields["grounded_leads"] = len(leads.Items)
	fields["grounded_companies"] = len(companies.Items)

	reply, err := s.completer.Complete(ctx, GroundingPrompt(leads.Items, companies.Items), message)
	if err != nil {
		return ChatResponse{}, err
	}
	return ChatResponse{
		Reply:     reply,
		Provider:  s.completer.Provider(),
		Model:     s.completer.Model(),
		Leads:     len(leads.Items),
		Companies: len(companies.Items),
	}, nil
}

// GroundingPrompt renders saved records as one line each. Placeholder values
// are left out.
func GroundingPrompt(leads []core.SavedLead, companies []core.SavedCompany) string {
	var b strings.Builder
	b.WriteString(systemPreamble)
	b.WriteString("\n\nSaved leads:\n")
	if len(leads) == 0 {
		b.WriteString("(none)\n")
	}
	for _, saved := range leads {
		lead := saved.Lead
		role := lead.Title
		if present(lead.Company) {
			if present(role) {
				role += " at " + lead.Company
			} else {
				role = lead.Company
			}
		}
		writeLine(&b, lead.Name, role, lead.Email, lead.Location, lead.Status, saved.Notes)
	}
	b.WriteString("\nSaved companies:\n")
	if len(companies) == 0 {
		b.WriteString("(none)\n")
	}
	for _, saved := range companies {
		company := saved.Company
		size := ""
		if company.EmployeeCount != nil {
			size = fmt.Sprintf("%d employees", *company.EmployeeCount)
		}
		writeLine(&b, company.Name, company.Domain, company.Industry, size, company.Location, saved.Notes)
	}
	return b.String()
}

func writeLine(b *strings.Builder, values ...string) {
	parts := make([]string, 0, len(values))
	for _, value := range values {
		if present(value) {
			parts = append(parts, strings.TrimSpace(value))
		}
	}
	if len(parts) == 0 {
		return
	}
	b.WriteString("- ")
	b.WriteString(strings.Join(parts, " | "))
	b.WriteString("\n")
}

func present(value string) bool {
	value = strings.TrimSpace(value)
	return value != "" && value != "N/A"
}
