package render

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/verithos/policyforge-backend/internal/steps"
	"github.com/verithos/policyforge-backend/internal/types"
)

// The rendering IR. Every codec consumes this and only this: section
// inclusion and ordering are decided here exactly once, so the PDF, DOCX and
// HTML outputs (and the on-screen preview) can never disagree about which
// content exists.

type BlockKind string

const (
	BlockParagraph BlockKind = "paragraph"
	BlockFact      BlockKind = "fact"
	BlockBullets   BlockKind = "bullets"
)

type Block struct {
	Kind  BlockKind `json:"kind"`
	Text  string    `json:"text,omitempty"`
	Label string    `json:"label,omitempty"`
	Value string    `json:"value,omitempty"`
	Items []string  `json:"items,omitempty"`
}

func (b Block) IsParagraph() bool { return b.Kind == BlockParagraph }
func (b Block) IsFact() bool      { return b.Kind == BlockFact }
func (b Block) IsBullets() bool   { return b.Kind == BlockBullets }

type Section struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Blocks []Block `json:"blocks"`
}

// Document is what a codec lays out: the IR plus presentation metadata.
// CreatedAt is pinned to the policy's UpdatedAt so identical inputs yield
// identical bytes.
type Document struct {
	Title     string    `json:"title"`
	Heading   string    `json:"heading"`
	Locale    string    `json:"locale"`
	Sections  []Section `json:"sections"`
	CreatedAt string    `json:"created_at"`
}

// Canonical section order. Codecs render exactly these ids, in exactly this
// order, skipping the ones BuildIR excluded.
var sectionOrder = []string{
	"presentation",
	"scope",
	"controller",
	"subjects",
	"categories",
	"online_usage",
	"sources",
	"purposes",
	"legal_bases",
	"transfers",
	"retention",
	"rights",
	"security",
	"minors",
	"automated_decisions",
	"changes",
	"contact",
}

// SectionOrder returns a copy of the canonical order.
func SectionOrder() []string {
	out := make([]string, len(sectionOrder))
	copy(out, sectionOrder)
	return out
}

// stepSet holds the decoded typed payloads of whichever steps are present.
type stepSet struct {
	Controller *steps.ControllerIdentity
	Categories *steps.DataCategories
	Subjects   *steps.DataSubjects
	Purposes   *steps.Purposes
	Bases      *steps.LegalBases
	Sources    *steps.DataSources
	Transfers  *steps.RecipientsTransfers
	Retention  *steps.Retention
	Security   *steps.SecurityMeasures
	Rights     *steps.SubjectRights
	Automated  *steps.AutomatedDecisions
	Meta       *steps.PolicyMeta
}

func decodeStepInto(m map[int]json.RawMessage, step int, target any) (bool, error) {
	raw, ok := m[step]
	if !ok || len(raw) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return false, fmt.Errorf("decode step %d payload: %w", step, err)
	}
	return true, nil
}

func decodeSteps(m map[int]json.RawMessage) (*stepSet, error) {
	ss := &stepSet{}
	var (
		controller steps.ControllerIdentity
		categories steps.DataCategories
		subjects   steps.DataSubjects
		purposes   steps.Purposes
		bases      steps.LegalBases
		sources    steps.DataSources
		transfers  steps.RecipientsTransfers
		retention  steps.Retention
		security   steps.SecurityMeasures
		rights     steps.SubjectRights
		automated  steps.AutomatedDecisions
		meta       steps.PolicyMeta
	)
	targets := []struct {
		step   int
		target any
		assign func()
	}{
		{1, &controller, func() { ss.Controller = &controller }},
		{2, &categories, func() { ss.Categories = &categories }},
		{3, &subjects, func() { ss.Subjects = &subjects }},
		{4, &purposes, func() { ss.Purposes = &purposes }},
		{5, &bases, func() { ss.Bases = &bases }},
		{6, &sources, func() { ss.Sources = &sources }},
		{7, &transfers, func() { ss.Transfers = &transfers }},
		{8, &retention, func() { ss.Retention = &retention }},
		{9, &security, func() { ss.Security = &security }},
		{10, &rights, func() { ss.Rights = &rights }},
		{11, &automated, func() { ss.Automated = &automated }},
		{12, &meta, func() { ss.Meta = &meta }},
	}
	for _, t := range targets {
		present, err := decodeStepInto(m, t.step, t.target)
		if err != nil {
			return nil, err
		}
		if present {
			t.assign()
		}
	}
	return ss, nil
}

// BuildIR projects a policy into the ordered section list for one locale.
// It is a pure function of the policy snapshot; the watermark flag is a
// render option and never part of the IR.
func BuildIR(p *types.Policy, locale string) ([]Section, error) {
	stepData, err := p.Steps()
	if err != nil {
		return nil, err
	}
	return BuildIRFromSteps(stepData, p.Name, locale)
}

// BuildIRFromContent builds the IR for a frozen version snapshot.
func BuildIRFromContent(content *types.PolicyContent, name, locale string) ([]Section, error) {
	stepData := make(map[int]json.RawMessage, len(content.StepData))
	for k, v := range content.StepData {
		var n int
		if _, err := fmt.Sscanf(k, "%d", &n); err != nil {
			return nil, fmt.Errorf("version content key %q: %w", k, err)
		}
		stepData[n] = v
	}
	return BuildIRFromSteps(stepData, name, locale)
}

func BuildIRFromSteps(stepData map[int]json.RawMessage, name, locale string) ([]Section, error) {
	loc, err := LoadLocale(locale)
	if err != nil {
		return nil, err
	}
	ss, err := decodeSteps(stepData)
	if err != nil {
		return nil, err
	}

	b := &irBuilder{loc: loc, name: name, steps: ss}
	var out []Section
	for _, id := range sectionOrder {
		if !b.include(id) {
			continue
		}
		sec := Section{ID: id, Title: loc.SectionTitle(id), Blocks: b.blocks(id)}
		out = append(out, sec)
	}
	return out, nil
}

type irBuilder struct {
	loc   *Locale
	name  string
	steps *stepSet
}

// include is the single home of all "does this section appear" predicates.
func (b *irBuilder) include(id string) bool {
	ss := b.steps
	switch id {
	case "presentation", "scope":
		return true
	case "controller":
		return ss.Controller != nil
	case "subjects":
		return ss.Subjects != nil
	case "categories":
		return ss.Categories != nil
	case "online_usage":
		return ss.Sources != nil && ss.Sources.UsesOnlineChannels()
	case "sources":
		return ss.Sources != nil
	case "purposes":
		return ss.Purposes != nil
	case "legal_bases":
		return ss.Bases != nil
	case "transfers":
		if ss.Transfers == nil {
			return false
		}
		if len(ss.Transfers.Recipients) > 0 {
			return true
		}
		return ss.Transfers.HasInternationalTransfers && len(ss.Transfers.Transfers) > 0
	case "retention":
		return ss.Retention != nil
	case "rights":
		return ss.Rights != nil
	case "security":
		return ss.Security != nil
	case "minors":
		if ss.Categories != nil && ss.Categories.HasMinorData {
			return true
		}
		return ss.Subjects != nil && ss.Subjects.MinorDataDetails != nil
	case "automated_decisions":
		return ss.Automated != nil
	case "changes":
		return ss.Meta != nil
	case "contact":
		return ss.Controller != nil || ss.Rights != nil
	default:
		return false
	}
}

func (b *irBuilder) blocks(id string) []Block {
	loc := b.loc
	ss := b.steps
	var blocks []Block

	para := func(text string) {
		if strings.TrimSpace(text) != "" {
			blocks = append(blocks, Block{Kind: BlockParagraph, Text: text})
		}
	}
	fact := func(label, value string) {
		if strings.TrimSpace(value) != "" {
			blocks = append(blocks, Block{Kind: BlockFact, Label: label, Value: value})
		}
	}
	bullets := func(items []string) {
		if len(items) > 0 {
			blocks = append(blocks, Block{Kind: BlockBullets, Items: items})
		}
	}

	switch id {
	case "presentation":
		para(loc.SectionIntro("presentation"))
		fact(loc.Label("document"), loc.DocumentTitle)
		fact(loc.Label("policy_name"), b.name)
		if ss.Meta != nil {
			fact(loc.Label("effective_date"), ss.Meta.EffectiveDate)
		}

	case "scope":
		para(loc.SectionIntro("scope"))
		if ss.Purposes != nil {
			fact(loc.Label("main_activity"), ss.Purposes.MainActivity)
		}

	case "controller":
		c := ss.Controller
		para(loc.SectionIntro("controller"))
		fact(loc.Label("company_name"), c.CompanyName)
		fact(loc.Label("legal_id"), c.LegalID)
		fact(loc.Label("address"), strings.TrimSpace(c.Address+", "+c.City+", "+c.Country))
		fact(loc.Label("email"), c.Email)
		fact(loc.Label("phone"), c.Phone)
		fact(loc.Label("website"), c.Website)
		fact(loc.Label("representative"), c.RepresentativeName)

	case "subjects":
		para(loc.SectionIntro("subjects"))
		bullets(loc.EnumList("subjects", ss.Subjects.Subjects))

	case "categories":
		c := ss.Categories
		para(loc.SectionIntro("categories"))
		bullets(loc.EnumList("categories", c.Categories))
		if c.OtherCategories != "" {
			fact(loc.Label("other_categories"), c.OtherCategories)
		}
		if c.HasSensitiveData {
			para(loc.SectionIntro("categories_sensitive"))
		}

	case "online_usage":
		s := ss.Sources
		para(loc.SectionIntro("online_usage"))
		var online []string
		for _, src := range s.Sources {
			if steps.IsOnlineSource(src) {
				online = append(online, loc.Enum("sources", src))
			}
		}
		bullets(online)
		fact(loc.Label("cookie_policy_url"), s.CookiePolicyURL)

	case "sources":
		para(loc.SectionIntro("sources"))
		bullets(loc.EnumList("sources", ss.Sources.Sources))

	case "purposes":
		p := ss.Purposes
		para(loc.SectionIntro("purposes"))
		bullets(loc.EnumList("purposes", p.Purposes))
		if p.OtherPurposes != "" {
			fact(loc.Label("other_purposes"), p.OtherPurposes)
		}

	case "legal_bases":
		lb := ss.Bases
		para(loc.SectionIntro("legal_bases"))
		bullets(loc.EnumList("bases", lb.Bases))
		if lb.ConsentDetails != nil {
			fact(loc.Label("consent_method"), loc.Enum("consent_methods", lb.ConsentDetails.Method))
			fact(loc.Label("consent_withdrawal"), lb.ConsentDetails.WithdrawalMethod)
		}
		if lb.InterestDescription != "" {
			fact(loc.Label("legitimate_interest"), lb.InterestDescription)
		}

	case "transfers":
		rt := ss.Transfers
		para(loc.SectionIntro("transfers"))
		var recipients []string
		for _, r := range rt.Recipients {
			recipients = append(recipients, fmt.Sprintf("%s (%s): %s", r.Name, loc.Enum("recipient_categories", r.Category), r.Purpose))
		}
		bullets(recipients)
		if rt.HasInternationalTransfers && len(rt.Transfers) > 0 {
			para(loc.SectionIntro("transfers_international"))
			var items []string
			for _, tr := range rt.Transfers {
				item := fmt.Sprintf("%s — %s: %s", tr.Country, tr.Recipient, tr.Purpose)
				if tr.Safeguards != "" {
					item += " (" + tr.Safeguards + ")"
				}
				items = append(items, item)
			}
			bullets(items)
		}

	case "retention":
		r := ss.Retention
		para(loc.SectionIntro("retention"))
		para(r.GeneralCriteria)
		var periods []string
		for _, p := range r.Periods {
			periods = append(periods, p.Category+": "+p.Period)
		}
		bullets(periods)

	case "rights":
		sr := ss.Rights
		para(loc.SectionIntro("rights"))
		fact(loc.Label("rights_channel"), sr.ContactChannel)
		fact(loc.Label("rights_deadline"), fmt.Sprintf("%d %s", sr.ResponseDeadlineDays, loc.Label("days")))
		para(sr.Procedure)
		fact(loc.Label("complaint_authority"), sr.ComplaintAuthority)

	case "security":
		sm := ss.Security
		para(loc.SectionIntro("security"))
		bullets(loc.EnumList("technical_measures", sm.Technical))
		bullets(loc.EnumList("organizational_measures", sm.Organizational))
		para(sm.Notes)

	case "minors":
		para(loc.SectionIntro("minors"))
		if ss.Subjects != nil && ss.Subjects.MinorDataDetails != nil {
			fact(loc.Label("minors_age_range"), ss.Subjects.MinorDataDetails.AgeRange)
			fact(loc.Label("minors_guardian_consent"), ss.Subjects.MinorDataDetails.GuardianConsent)
		}

	case "automated_decisions":
		ad := ss.Automated
		if ad.HasAutomatedDecisions {
			para(loc.SectionIntro("automated_decisions"))
			fact(loc.Label("automated_logic"), ad.LogicDescription)
			fact(loc.Label("automated_significance"), ad.Significance)
		} else {
			para(loc.SectionIntro("automated_decisions_none"))
		}
		if ad.HasProfiling {
			para(loc.SectionIntro("profiling"))
		}

	case "changes":
		m := ss.Meta
		para(loc.SectionIntro("changes"))
		fact(loc.Label("update_notice_method"), loc.Enum("notice_methods", m.UpdateNoticeMethod))
		fact(loc.Label("effective_date"), m.EffectiveDate)

	case "contact":
		para(loc.SectionIntro("contact"))
		if ss.Controller != nil {
			fact(loc.Label("email"), ss.Controller.Email)
			fact(loc.Label("phone"), ss.Controller.Phone)
		}
		if ss.Rights != nil {
			fact(loc.Label("rights_channel"), ss.Rights.ContactChannel)
		}
		if ss.Meta != nil && ss.Meta.DPOName != "" {
			fact(loc.Label("dpo"), strings.TrimSpace(ss.Meta.DPOName+" "+ss.Meta.DPOEmail))
		}
	}
	return blocks
}
