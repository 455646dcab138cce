package model

import "time"

// StatsID is the primary key of the single statistics row.
const StatsID = 1

// Stats holds the three headline counters shown on the home page.
type Stats struct {
	ID                           int64     `db:"id"`
	InternationalCongressValue   int       `db:"international_congress_value"`
	InternationalCongressLabelFr string    `db:"international_congress_label_fr"`
	InternationalCongressLabelEn string    `db:"international_congress_label_en"`
	SymposiumValue               int       `db:"symposium_value"`
	SymposiumLabelFr             string    `db:"symposium_label_fr"`
	SymposiumLabelEn             string    `db:"symposium_label_en"`
	SatisfiedCompaniesValue      int       `db:"satisfied_companies_value"`
	SatisfiedCompaniesLabelFr    string    `db:"satisfied_companies_label_fr"`
	SatisfiedCompaniesLabelEn    string    `db:"satisfied_companies_label_en"`
	UpdatedBy                    *int64    `db:"updated_by"`
	UpdatedAt                    time.Time `db:"updated_at"`
}

// DefaultStats returns the counters a fresh installation starts with.
func DefaultStats() Stats {
	return Stats{
		ID:                           StatsID,
		InternationalCongressValue:   11,
		InternationalCongressLabelFr: "Congrés Internationale",
		InternationalCongressLabelEn: "International Congress",
		SymposiumValue:               24,
		SymposiumLabelFr:             "Symposium",
		SymposiumLabelEn:             "Symposium",
		SatisfiedCompaniesValue:      28,
		SatisfiedCompaniesLabelFr:    "Societé satisfait",
		SatisfiedCompaniesLabelEn:    "Satisfied Companies",
	}
}

// StatCounter is one labelled counter.
type StatCounter struct {
	Value   int    `json:"value"`
	LabelFr string `json:"labelFr"`
	LabelEn string `json:"labelEn"`
}

// StatsView is the admin representation of Stats.
type StatsView struct {
	InternationalCongress StatCounter `json:"internationalCongress"`
	Symposium             StatCounter `json:"symposium"`
	SatisfiedCompanies    StatCounter `json:"satisfiedCompanies"`
	UpdatedAt             time.Time   `json:"updatedAt"`
}

// PublicStats is the value-only representation served to the site.
type PublicStats struct {
	InternationalCongress int `json:"internationalCongress"`
	Symposium             int `json:"symposium"`
	SatisfiedCompanies    int `json:"satisfiedCompanies"`
}

// View returns the labelled admin representation.
func (s *Stats) View() StatsView {
	return StatsView{
		InternationalCongress: StatCounter{s.InternationalCongressValue, s.InternationalCongressLabelFr, s.InternationalCongressLabelEn},
		Symposium:             StatCounter{s.SymposiumValue, s.SymposiumLabelFr, s.SymposiumLabelEn},
		SatisfiedCompanies:    StatCounter{s.SatisfiedCompaniesValue, s.SatisfiedCompaniesLabelFr, s.SatisfiedCompaniesLabelEn},
		UpdatedAt:             s.UpdatedAt,
	}
}

// Public returns the value-only representation.
func (s *Stats) Public() PublicStats {
	return PublicStats{
		InternationalCongress: s.InternationalCongressValue,
		Symposium:             s.SymposiumValue,
		SatisfiedCompanies:    s.SatisfiedCompaniesValue,
	}
}

// StatCounterPatch carries optional changes to one counter.
type StatCounterPatch struct {
	Value   *int    `json:"value" mapstructure:"value"`
	LabelFr *string `json:"labelFr" mapstructure:"labelFr"`
	LabelEn *string `json:"labelEn" mapstructure:"labelEn"`
}

// StatsPatch carries optional changes to all counters.
type StatsPatch struct {
	InternationalCongress *StatCounterPatch `json:"internationalCongress" mapstructure:"internationalCongress"`
	Symposium             *StatCounterPatch `json:"symposium" mapstructure:"symposium"`
	SatisfiedCompanies    *StatCounterPatch `json:"satisfiedCompanies" mapstructure:"satisfiedCompanies"`
}

// Apply copies every present field of p onto s.
func (p StatsPatch) Apply(s *Stats) {
	apply := func(c *StatCounterPatch, value *int, fr, en *string) {
		if c == nil {
			return
		}
		if c.Value != nil {
			*value = *c.Value
		}
		if c.LabelFr != nil {
			*fr = *c.LabelFr
		}
		if c.LabelEn != nil {
			*en = *c.LabelEn
		}
	}
	apply(p.InternationalCongress, &s.InternationalCongressValue, &s.InternationalCongressLabelFr, &s.InternationalCongressLabelEn)
	apply(p.Symposium, &s.SymposiumValue, &s.SymposiumLabelFr, &s.SymposiumLabelEn)
	apply(p.SatisfiedCompanies, &s.SatisfiedCompaniesValue, &s.SatisfiedCompaniesLabelFr, &s.SatisfiedCompaniesLabelEn)
}
