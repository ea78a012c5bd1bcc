package prompts

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/b2bnest/b2bnest-api/internal/assistant/domain"
)

const defaultPlatform = `B2BNest is an all-in-one operations platform for small and medium-sized UK businesses.
It brings together:
- Business planning: business plan builder, SWOT analysis, goal tracking and market research notes.
- Finance: cash flow tracking with inflow and outflow categories, ROI calculator, invoicing and expense records.
- Tax and compliance: HMRC Making Tax Digital VAT obligations, VAT return preparation and submission, deadline reminders.
- Marketing: social media post scheduling for LinkedIn, Twitter, Facebook and Instagram, campaign planning and customer surveys.
- Operations: projects and tasks with assignments, due dates, comments and status tracking, team notifications.
- Website tools: page scraping and crawling for competitor and market research.
Free accounts are limited to 50 cash flow entries, 10 ROI calculations and 5 surveys. Pro and Enterprise plans remove these limits.
When users ask how to do something, point them to the relevant B2BNest feature before suggesting outside tools.`

var defaultSystem = map[domain.ConversationType]string{
	domain.TypeGeneral: `You are the B2BNest business assistant. Answer questions about running a small business and about using the platform.
Be concise, practical and friendly. Use short paragraphs or bullet points. If a question needs a professional (accountant, solicitor), say so.`,

	domain.TypeBusinessPlanning: `You are a business planning advisor for small and medium-sized businesses.
Help the user shape their business model, value proposition, target market, competitive positioning and milestones.
Give structured, actionable advice with clear next steps and realistic assumptions. Ask for missing numbers when they matter.`,

	domain.TypeMarketing: `You are a marketing strategist for small businesses with limited budgets.
Help with positioning, channel selection, social media content, campaigns, customer research and measuring results.
Suggest concrete post ideas, posting cadences and metrics to track. Prefer low-cost tactics that can be run by a small team.`,

	domain.TypeFinance: `You are a financial advisor for UK small businesses.
Help with cash flow management, pricing, budgeting, ROI analysis, funding options and VAT under Making Tax Digital.
Show your calculations step by step. Flag risks clearly. Remind the user that you do not replace a qualified accountant for filings.`,

	domain.TypeOperations: `You are an operations consultant for growing small businesses.
Help with processes, task and project management, hiring and delegation, supplier management and tooling.
Recommend simple, repeatable workflows and explain how to track them with tasks, owners and due dates.`,
}

// Set holds the system prompts for every conversation type plus the platform description
// appended to each of them.
type Set struct {
	Platform string
	System   map[domain.ConversationType]string
}

type overrideFile struct {
	Platform string            `yaml:"platform"`
	Prompts  map[string]string `yaml:"prompts"`
}

func Default() *Set {
	s := &Set{Platform: defaultPlatform, System: make(map[domain.ConversationType]string, len(defaultSystem))}
	for k, v := range defaultSystem {
		s.System[k] = v
	}
	return s
}

// Load returns the default set with any prompts from the YAML file at path replacing the
// built-in ones. An empty path returns the defaults.
func Load(path string) (*Set, error) {
	s := Default()
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompts file: %w", err)
	}
	if err := s.apply(data); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Set) apply(data []byte) error {
	var f overrideFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse prompts file: %w", err)
	}

	if p := strings.TrimSpace(f.Platform); p != "" {
		s.Platform = p
	}
	for key, prompt := range f.Prompts {
		typ, err := domain.ParseType(key)
		if err != nil || strings.TrimSpace(key) == "" {
			return fmt.Errorf("prompts file: unknown conversation type %q", key)
		}
		if p := strings.TrimSpace(prompt); p != "" {
			s.System[typ] = p
		}
	}
	return nil
}

// UserContext is the optional per-request context appended to the system prompt.
type UserContext struct {
	Industry      string
	BusinessStage string
	Notes         string
}

// SystemPrompt builds the full system prompt for t.
func (s *Set) SystemPrompt(t domain.ConversationType, uc UserContext) string {
	var b strings.Builder
	b.WriteString(s.System[t])
	b.WriteString("\n\nAbout the platform:\n")
	b.WriteString(s.Platform)

	var lines []string
	if v := strings.TrimSpace(uc.Industry); v != "" {
		lines = append(lines, "Industry: "+v)
	}
	if v := strings.TrimSpace(uc.BusinessStage); v != "" {
		lines = append(lines, "Business stage: "+v)
	}
	if v := strings.TrimSpace(uc.Notes); v != "" {
		lines = append(lines, "Additional context: "+v)
	}
	if len(lines) > 0 {
		b.WriteString("\n\nUser context:\n")
		b.WriteString(strings.Join(lines, "\n"))
	}
	return b.String()
}
