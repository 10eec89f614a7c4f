package steps

// Typed JSON contracts for the 12 wizard steps. These are pure data shapes;
// every payload is validated once at the boundary (Validate) and trusted
// downstream. Field names are the wire contract with the client.

// Step 1: identity of the data controller.
type ControllerIdentity struct {
	CompanyName        string `json:"company_name" validate:"required"`
	LegalID            string `json:"legal_id" validate:"required"`
	Address            string `json:"address" validate:"required"`
	City               string `json:"city" validate:"required"`
	Country            string `json:"country" validate:"required"`
	Email              string `json:"email" validate:"required,email"`
	Phone              string `json:"phone" validate:"omitempty,min=6"`
	Website            string `json:"website" validate:"omitempty,url"`
	RepresentativeName string `json:"representative_name" validate:"omitempty,min=2"`
}

// Step 2: categories of personal data handled. The two booleans are derived
// from the category selections on every validation and never trusted from
// client input.
type DataCategories struct {
	Categories       []string `json:"categories" validate:"required,min=1,dive,oneof=identification contact financial employment academic commercial navigation location health biometric ideology judicial minors"`
	OtherCategories  string   `json:"other_categories" validate:"omitempty,max=500"`
	HasSensitiveData bool     `json:"has_sensitive_data"`
	HasMinorData     bool     `json:"has_minor_data"`
}

// Categories whose presence marks the policy as handling sensitive data.
var sensitiveCategories = map[string]bool{
	"health":    true,
	"biometric": true,
	"ideology":  true,
	"judicial":  true,
}

type MinorDataDetails struct {
	AgeRange        string `json:"age_range" validate:"required"`
	GuardianConsent string `json:"guardian_consent" validate:"required"`
}

// Step 3: categories of data subjects.
type DataSubjects struct {
	Subjects         []string          `json:"subjects" validate:"required,min=1,dive,oneof=customers prospects employees job_applicants suppliers partners website_users minors"`
	MinorDataDetails *MinorDataDetails `json:"minor_data_details,omitempty"`
}

// Step 4: purposes of the processing.
type Purposes struct {
	MainActivity  string   `json:"main_activity" validate:"required"`
	Purposes      []string `json:"purposes" validate:"required,min=1,dive,oneof=service_provision billing marketing profiling analytics legal_compliance hr_management security customer_support"`
	OtherPurposes string   `json:"other_purposes" validate:"omitempty,max=500"`
}

type ConsentDetails struct {
	Method           string `json:"method" validate:"required,oneof=written digital verbal"`
	WithdrawalMethod string `json:"withdrawal_method" validate:"required"`
}

// Step 5: legal bases. Consent details are required only when the consent
// basis is selected; same for the legitimate interest description.
type LegalBases struct {
	Bases               []string        `json:"bases" validate:"required,min=1,dive,oneof=consent contract legal_obligation vital_interest public_interest legitimate_interest"`
	ConsentDetails      *ConsentDetails `json:"consent_details,omitempty"`
	InterestDescription string          `json:"interest_description,omitempty" validate:"omitempty,max=1000"`
}

// Step 6: where the data comes from and whether it is collected online.
type DataSources struct {
	Sources         []string `json:"sources" validate:"required,min=1,dive,oneof=direct third_parties public_sources cookies web_forms analytics_tools social_media"`
	CookiePolicyURL string   `json:"cookie_policy_url" validate:"omitempty,url"`
}

var onlineSources = map[string]bool{
	"cookies":         true,
	"web_forms":       true,
	"analytics_tools": true,
	"social_media":    true,
}

// IsOnlineSource reports whether a source code is an online collection
// channel.
func IsOnlineSource(s string) bool {
	return onlineSources[s]
}

// UsesOnlineChannels reports whether any selected source is an online
// collection channel.
func (d *DataSources) UsesOnlineChannels() bool {
	for _, s := range d.Sources {
		if onlineSources[s] {
			return true
		}
	}
	return false
}

type Recipient struct {
	Name     string `json:"name" validate:"required"`
	Category string `json:"category" validate:"required,oneof=processor public_authority partner group_company"`
	Purpose  string `json:"purpose" validate:"required"`
}

type Transfer struct {
	Country    string `json:"country" validate:"required"`
	Recipient  string `json:"recipient" validate:"required"`
	Purpose    string `json:"purpose" validate:"required"`
	Safeguards string `json:"safeguards" validate:"omitempty,max=500"`
}

// Step 7: recipients and international transfers.
type RecipientsTransfers struct {
	Recipients                []Recipient `json:"recipients" validate:"omitempty,dive"`
	HasInternationalTransfers bool        `json:"has_international_transfers"`
	Transfers                 []Transfer  `json:"transfers,omitempty" validate:"omitempty,dive"`
}

type RetentionPeriod struct {
	Category string `json:"category" validate:"required"`
	Period   string `json:"period" validate:"required"`
}

// Step 8: retention criteria and per-category periods.
type Retention struct {
	GeneralCriteria string            `json:"general_criteria" validate:"required"`
	Periods         []RetentionPeriod `json:"periods" validate:"omitempty,dive"`
}

// Step 9: security measures.
type SecurityMeasures struct {
	Technical      []string `json:"technical" validate:"required,min=1,dive,oneof=encryption access_control backups pseudonymization network_security logging"`
	Organizational []string `json:"organizational" validate:"required,min=1,dive,oneof=training confidentiality_agreements access_policies incident_response audits"`
	Notes          string   `json:"notes" validate:"omitempty,max=1000"`
}

// Step 10: how data subjects exercise their rights.
type SubjectRights struct {
	ContactChannel       string `json:"contact_channel" validate:"required"`
	ResponseDeadlineDays int    `json:"response_deadline_days" validate:"required,min=1,max=90"`
	Procedure            string `json:"procedure" validate:"required"`
	ComplaintAuthority   string `json:"complaint_authority" validate:"omitempty,max=300"`
}

// Step 11: automated decision-making and profiling.
type AutomatedDecisions struct {
	HasAutomatedDecisions bool   `json:"has_automated_decisions"`
	HasProfiling          bool   `json:"has_profiling"`
	LogicDescription      string `json:"logic_description,omitempty" validate:"omitempty,max=2000"`
	Significance          string `json:"significance,omitempty" validate:"omitempty,max=1000"`
}

// Step 12: document metadata and change notices.
type PolicyMeta struct {
	EffectiveDate      string `json:"effective_date" validate:"required,datetime=2006-01-02"`
	UpdateNoticeMethod string `json:"update_notice_method" validate:"required,oneof=email website both"`
	DPOName            string `json:"dpo_name" validate:"omitempty,min=2"`
	DPOEmail           string `json:"dpo_email" validate:"omitempty,email"`
}
