package serpapi

import (
	"bytes"
	"encoding/json"
)

// Text decodes loosely typed upstream fields. Strings decode as-is, numbers and
// booleans keep their literal form, null/objects/arrays become "".
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		*t = ""
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(s)
	case 'n', '{', '[':
		*t = ""
	default:
		*t = Text(b)
	}
	return nil
}

func (t Text) String() string { return string(t) }

// JobResult mirrors one google_jobs "jobs_results" entry.
type JobResult struct {
	Title              Text        `json:"title"`
	CompanyName        Text        `json:"company_name"`
	Location           Text        `json:"location"`
	Via                Text        `json:"via"`
	Description        Text        `json:"description"`
	Link               Text        `json:"link"`
	ShareLink          Text        `json:"share_link"`
	Salary             Text        `json:"salary"`
	DetectedExtensions Extensions  `json:"detected_extensions"`
	JobHighlights      []Highlight `json:"job_highlights"`
}

// Extensions holds the parsed chips Google attaches to a listing.
type Extensions struct {
	Salary       Text `json:"salary"`
	ScheduleType Text `json:"schedule_type"`
	PostedAt     Text `json:"posted_at"`
}

// Highlight is a titled list such as "Qualifications".
type Highlight struct {
	Title Text   `json:"title"`
	Items []Text `json:"items"`
}

// ApplyLink prefers the shareable link over the direct one.
func (j JobResult) ApplyLink() string {
	if j.ShareLink != "" {
		return j.ShareLink.String()
	}
	return j.Link.String()
}

// SalaryText prefers the explicit salary over the detected extension.
func (j JobResult) SalaryText() string {
	if j.Salary != "" {
		return j.Salary.String()
	}
	return j.DetectedExtensions.Salary.String()
}

// HighlightText joins all highlight items into one string.
func (j JobResult) HighlightText() string {
	var sb bytes.Buffer
	for _, h := range j.JobHighlights {
		for _, item := range h.Items {
			if item == "" {
				continue
			}
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(item.String())
		}
	}
	return sb.String()
}
