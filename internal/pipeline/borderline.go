package pipeline

import "github.com/sells-group/confscout/internal/model"

// SelectBorderline picks the companies that warrant a second look: every
// record classified Maybe, at any confidence. Unscored records are not
// borderline; their scoring gap is already recorded as an anomaly. Pure
// function of its input, preserving order.
func SelectBorderline(records []*model.CompanyRecord) []*model.CompanyRecord {
	var out []*model.CompanyRecord
	for _, r := range records {
		if r.Fit == model.FitMaybe {
			out = append(out, r)
		}
	}
	return out
}
