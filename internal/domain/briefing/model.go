package briefing

import "time"

// Schedule is a CRM calendar entry with its related records populated.
type Schedule struct {
	ID                string     `json:"id"`
	Title             string     `json:"title"`
	Type              string     `json:"type"`
	Date              time.Time  `json:"date"`
	Time              string     `json:"time"`
	Location          string     `json:"location"`
	Description       string     `json:"description"`
	Priority          string     `json:"priority"`
	Status            string     `json:"status"`
	Publisher         *Publisher `json:"publisher"`
	RelatedCustomers  []Customer `json:"relatedCustomers"`
	RelatedProperties []Property `json:"relatedProperties"`
	RelatedContracts  []Contract `json:"relatedContracts"`
	CompanyNumber     string     `json:"byCompanyNumber"`
	CreatedAt         time.Time  `json:"createdAt"`
}

// Publisher is the user who registered a schedule.
type Publisher struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Level          int    `json:"level"`
	BusinessNumber string `json:"businessNumber"`
	Phone          string `json:"phone"`
}

// Customer is a client attached to a schedule.
type Customer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// Property is a listing attached to a schedule.
type Property struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Address string `json:"address"`
}

// Contract is a deal attached to a schedule.
type Contract struct {
	ID             string `json:"id"`
	ContractNumber string `json:"contractNumber"`
	Type           string `json:"type"`
	Status         string `json:"status"`
}

// Viewer is the authenticated user requesting a briefing.
type Viewer struct {
	ID             string
	Name           string
	Level          int
	BusinessNumber string
}

// companyScopeLevel is the first level that sees every schedule of the company.
const companyScopeLevel = 5

// CanView reports whether the viewer may read the schedule.
func (v Viewer) CanView(s Schedule) bool {
	if v.Level < companyScopeLevel {
		return s.Publisher != nil && s.Publisher.ID == v.ID
	}
	return s.CompanyNumber == v.BusinessNumber
}

// ScheduleFilter narrows a schedule lookup. Exactly one of PublisherID or
// CompanyNumber is set by the service.
type ScheduleFilter struct {
	From          time.Time
	To            time.Time
	PublisherID   string
	CompanyNumber string
}

// FilterFor returns the date-bounded filter matching the viewer's scope.
func (v Viewer) FilterFor(from, to time.Time) ScheduleFilter {
	filter := ScheduleFilter{From: from, To: to}
	if v.Level < companyScopeLevel {
		filter.PublisherID = v.ID
	} else {
		filter.CompanyNumber = v.BusinessNumber
	}
	return filter
}

// Range is an inclusive time window echoed back to clients.
type Range struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// WeeklyResult is returned by the weekly briefing.
type WeeklyResult struct {
	Briefing  string     `json:"briefing"`
	Analysis  string     `json:"analysis"`
	Schedules []Schedule `json:"schedules"`
	WeekRange *Range     `json:"weekRange,omitempty"`
}

// DailyResult is returned by the daily briefing.
type DailyResult struct {
	Briefing  string     `json:"briefing"`
	Schedules []Schedule `json:"schedules"`
	Date      time.Time  `json:"date"`
}

// MeetingResult is returned by the meeting message recommendation.
type MeetingResult struct {
	Schedule              Schedule `json:"schedule"`
	Customer              Customer `json:"customer"`
	MessageRecommendation string   `json:"messageRecommendation"`
}

// AnalysisResult is returned by the schedule analysis.
type AnalysisResult struct {
	Analysis  string     `json:"analysis"`
	Schedules []Schedule `json:"schedules"`
	Period    *Range     `json:"period,omitempty"`
}

// AnalysisRequest carries the optional analysis window as given by the client.
type AnalysisRequest struct {
	StartDate string
	EndDate   string
}
