package analytics

import "tank-monitor/analytics/internal/domain"

type Summary struct {
	Total   int                       `json:"total"`
	ByBand  map[domain.StatusBand]int `json:"by_band"`
	ByIssue map[domain.Issue]int      `json:"by_issue"`
}

func Summarize(statuses []domain.FillStatus) Summary {
	s := Summary{
		ByBand:  make(map[domain.StatusBand]int),
		ByIssue: make(map[domain.Issue]int),
	}
	for _, st := range statuses {
		s.Total++
		s.ByBand[st.Band]++
		if st.Issue != domain.IssueNone {
			s.ByIssue[st.Issue]++
		}
	}
	return s
}
