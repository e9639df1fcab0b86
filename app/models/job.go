package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	JobTypeFullTime   = "FT"
	JobTypePartTime   = "PT"
	JobTypeContract   = "CT"
	JobTypeInternship = "IN"
	JobTypeTemporary  = "TP"
)

const (
	WorkModeRemote = "REMOTE"
	WorkModeOnsite = "ONSITE"
	WorkModeHybrid = "HYBRID"
)

const (
	RemotePolicyFullRemote     = "FULL_REMOTE"
	RemotePolicyHybridOptional = "HYBRID_OPTIONAL"
	RemotePolicyHybridRequired = "HYBRID_REQUIRED"
	RemotePolicyOnsite         = "ONSITE"
)

const (
	AsyncLevelFull        = "FULL_ASYNC"
	AsyncLevelMostly      = "MOSTLY_ASYNC"
	AsyncLevelSomeSync    = "SOME_SYNC"
	AsyncLevelTraditional = "TRADITIONAL"
)

// MaxTechTags limits the number of tech tags on a job.
const MaxTechTags = 10

// Neighborhoods lists the accepted Atlanta metro locations.
var Neighborhoods = []string{
	"MIDTOWN", "TECH_SQUARE", "PONCE_CITY", "CENTENNIAL_PARK", "EAV", "LITTLE_FIVE",
	"GRANT_PARK", "WESTSIDE", "VIRGINIA_HIGHLAND", "DECATUR", "SANDY_SPRINGS", "ROSWELL",
	"MARIETTA", "ALPHARETTA", "DULUTH", "JOHNSCREEK", "SMYRNA", "KENNESAW", "OTHER",
}

const remoteFriendlyOnsiteMessage = "Remote-friendly jobs should be Remote or Hybrid."

// Job is a posting attributed to a company. UUID is the public identifier.
// CompanyID and PostedByID are set on creation and never changed afterwards.
type Job struct {
	ID               uint      `gorm:"primaryKey" json:"-"`
	UUID             string    `gorm:"type:char(36);not null;uniqueIndex" json:"id"`
	Title            string    `gorm:"type:varchar(255);not null" json:"title"`
	CompanyID        uint      `gorm:"not null;index" json:"company_id"`
	Company          *Company  `gorm:"constraint:OnDelete:CASCADE" json:"company,omitempty"`
	PostedByID       *uint     `gorm:"index" json:"posted_by"`
	ApplyURL         string    `gorm:"type:varchar(500);not null" json:"apply_url"`
	Neighborhood     string    `gorm:"type:varchar(20);default:'';index" json:"neighborhood"`
	Location         string    `gorm:"type:varchar(255);default:'';index" json:"location"`
	JobType          string    `gorm:"type:varchar(2);not null;default:'FT';index" json:"job_type"`
	WorkMode         string    `gorm:"type:varchar(10);not null;default:'REMOTE';index" json:"work_mode"`
	RemotePolicy     string    `gorm:"type:varchar(20);default:''" json:"remote_policy"`
	AsyncLevel       string    `gorm:"type:varchar(20);default:''" json:"async_level"`
	Description      string    `gorm:"type:text;not null" json:"description"`
	Responsibilities string    `gorm:"type:text" json:"responsibilities"`
	Requirements     string    `gorm:"type:text" json:"requirements"`
	MinSalary        *float64  `gorm:"type:decimal(10,2)" json:"min_salary"`
	MaxSalary        *float64  `gorm:"type:decimal(10,2)" json:"max_salary"`
	TechTags         []Tag     `gorm:"many2many:job_tech_tags;" json:"-"`
	Benefits         string    `gorm:"type:text" json:"benefits"`
	InterviewProcess string    `gorm:"type:text" json:"interview_process"`
	IsRemoteFriendly bool      `gorm:"not null;default:false;index" json:"is_remote_friendly"`
	CreatedAt        time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// JobInput carries the client-writable job fields. Attribution is never part of it.
type JobInput struct {
	Title            string   `json:"title" validate:"required,max=255"`
	ApplyURL         string   `json:"apply_url" validate:"required,http_url,max=500"`
	Neighborhood     string   `json:"neighborhood" validate:"omitempty,oneof=MIDTOWN TECH_SQUARE PONCE_CITY CENTENNIAL_PARK EAV LITTLE_FIVE GRANT_PARK WESTSIDE VIRGINIA_HIGHLAND DECATUR SANDY_SPRINGS ROSWELL MARIETTA ALPHARETTA DULUTH JOHNSCREEK SMYRNA KENNESAW OTHER"`
	Location         string   `json:"location" validate:"max=255"`
	JobType          string   `json:"job_type" validate:"oneof=FT PT CT IN TP"`
	WorkMode         string   `json:"work_mode" validate:"oneof=REMOTE ONSITE HYBRID"`
	RemotePolicy     string   `json:"remote_policy" validate:"omitempty,oneof=FULL_REMOTE HYBRID_OPTIONAL HYBRID_REQUIRED ONSITE"`
	AsyncLevel       string   `json:"async_level" validate:"omitempty,oneof=FULL_ASYNC MOSTLY_ASYNC SOME_SYNC TRADITIONAL"`
	Description      string   `json:"description" validate:"required"`
	Responsibilities string   `json:"responsibilities"`
	Requirements     string   `json:"requirements"`
	MinSalary        *float64 `json:"min_salary" validate:"omitempty,gte=0"`
	MaxSalary        *float64 `json:"max_salary" validate:"omitempty,gte=0"`
	TechTags         []string `json:"tech_tags" validate:"max=10"`
	Benefits         string   `json:"benefits"`
	InterviewProcess string   `json:"interview_process"`
	IsRemoteFriendly bool     `json:"is_remote_friendly"`
}

// Normalize applies defaults and canonical forms before validation.
func (in *JobInput) Normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.ApplyURL = strings.TrimSpace(in.ApplyURL)
	in.Neighborhood = strings.ToUpper(strings.TrimSpace(in.Neighborhood))
	in.JobType = strings.ToUpper(strings.TrimSpace(in.JobType))
	in.WorkMode = strings.ToUpper(strings.TrimSpace(in.WorkMode))
	in.RemotePolicy = strings.ToUpper(strings.TrimSpace(in.RemotePolicy))
	in.AsyncLevel = strings.ToUpper(strings.TrimSpace(in.AsyncLevel))
	if in.JobType == "" {
		in.JobType = JobTypeFullTime
	}
	if in.WorkMode == "" {
		in.WorkMode = WorkModeRemote
	}
	in.TechTags = NormalizeTags(in.TechTags)
}

// ValidateJob normalizes in and checks it, returning json field name ->
// message for every failed rule, or nil when the job may be persisted.
func ValidateJob(in *JobInput) map[string]string {
	in.Normalize()
	fields := FieldErrors(in)
	if in.IsRemoteFriendly && in.WorkMode == WorkModeOnsite {
		if fields == nil {
			fields = map[string]string{}
		}
		fields["work_mode"] = remoteFriendlyOnsiteMessage
	}
	if in.MinSalary != nil && in.MaxSalary != nil && *in.MinSalary > *in.MaxSalary {
		if fields == nil {
			fields = map[string]string{}
		}
		fields["min_salary"] = "Minimum salary cannot exceed maximum salary."
	}
	return fields
}

// NewJob builds an unsaved job from validated input.
func NewJob(in JobInput, companyID uint, postedBy *uint) *Job {
	j := &Job{
		UUID:       uuid.NewString(),
		CompanyID:  companyID,
		PostedByID: postedBy,
	}
	in.Apply(j)
	return j
}

// Apply copies the writable fields onto j. Tags are resolved by the caller.
func (in JobInput) Apply(j *Job) {
	j.Title = in.Title
	j.ApplyURL = in.ApplyURL
	j.Neighborhood = in.Neighborhood
	j.Location = in.Location
	j.JobType = in.JobType
	j.WorkMode = in.WorkMode
	j.RemotePolicy = in.RemotePolicy
	j.AsyncLevel = in.AsyncLevel
	j.Description = in.Description
	j.Responsibilities = in.Responsibilities
	j.Requirements = in.Requirements
	j.MinSalary = in.MinSalary
	j.MaxSalary = in.MaxSalary
	j.Benefits = in.Benefits
	j.InterviewProcess = in.InterviewProcess
	j.IsRemoteFriendly = in.IsRemoteFriendly
}

// ToInput returns the current state as input, used as the base for partial updates.
func (j *Job) ToInput() JobInput {
	return JobInput{
		Title:            j.Title,
		ApplyURL:         j.ApplyURL,
		Neighborhood:     j.Neighborhood,
		Location:         j.Location,
		JobType:          j.JobType,
		WorkMode:         j.WorkMode,
		RemotePolicy:     j.RemotePolicy,
		AsyncLevel:       j.AsyncLevel,
		Description:      j.Description,
		Responsibilities: j.Responsibilities,
		Requirements:     j.Requirements,
		MinSalary:        j.MinSalary,
		MaxSalary:        j.MaxSalary,
		TechTags:         TagNames(j.TechTags),
		Benefits:         j.Benefits,
		InterviewProcess: j.InterviewProcess,
		IsRemoteFriendly: j.IsRemoteFriendly,
	}
}
