package track

import "sort"

// SubstitutionEntry is one substitution in the document report.
type SubstitutionEntry struct {
	OriginalFont    string `json:"original_font"`
	SubstitutedFont string `json:"substituted_font"`
	Reason          string `json:"reason"`
	ElementID       string `json:"element_id"`
	PageNumber      int    `json:"page_number"`
}

// Report is the JSON-serializable document report handed to the
// validation/reporting collaborator after all registrations of a
// document have run.
type Report struct {
	SessionID          string              `json:"session_id"`
	FontsRequired      []string            `json:"fonts_required"`
	FontsAvailable     []string            `json:"fonts_available"`
	FontsMissing       []string            `json:"fonts_missing"`
	FontsSubstituted   []SubstitutionEntry `json:"fonts_substituted"`
	ValidationPassed   bool                `json:"validation_passed"`
	ValidationMessages []string            `json:"validation_messages"`
}

// BuildReport assembles the document report. pages maps target ids to
// page numbers for the substitution entries; unknown targets report page
// 0. Validation passes iff no font is missing and no error has been
// recorded. All name lists are sorted for deterministic output.
func BuildReport(sessionID string, required, available []string,
	subs []Substitution, errs []ErrorRecord, pages map[string]int) Report {
	//
	rep := Report{
		SessionID:      sessionID,
		FontsRequired:  sortedUnique(required),
		FontsAvailable: sortedUnique(available),
	}
	have := make(map[string]bool, len(rep.FontsAvailable))
	for _, name := range rep.FontsAvailable {
		have[name] = true
	}
	for _, name := range rep.FontsRequired {
		if !have[name] {
			rep.FontsMissing = append(rep.FontsMissing, name)
		}
	}
	for _, sub := range subs {
		rep.FontsSubstituted = append(rep.FontsSubstituted, SubstitutionEntry{
			OriginalFont:    sub.Original,
			SubstitutedFont: sub.Substituted,
			Reason:          sub.Reason,
			ElementID:       sub.ElementID,
			PageNumber:      pages[sub.TargetID],
		})
	}
	for _, rec := range errs {
		rep.ValidationMessages = append(rep.ValidationMessages,
			rec.Category.String()+": "+rec.Message)
	}
	rep.ValidationPassed = len(rep.FontsMissing) == 0 && len(errs) == 0
	return rep
}

func sortedUnique(names []string) []string {
	seen := make(map[string]bool, len(names))
	var out []string
	for _, name := range names {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
