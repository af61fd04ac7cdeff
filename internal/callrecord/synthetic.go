package callrecord

import (
	"fmt"
	"time"
)

// Synthetic call history for offline dashboards. Everything here is a pure
// function of (page, limit): same inputs, same total, same per-page content.
// No wall-clock or random seed is involved.

const syntheticTotal = 137

// syntheticBase anchors generated timestamps. Fixed on purpose.
var syntheticBase = time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

var syntheticStatuses = []string{"completed", "completed", "failed", "completed", "hungup"}

var syntheticCallers = []string{
	"+91 98765 43210",
	"+91 91234 56789",
	"+91 99887 76655",
	"+91 90011 22334",
	"+91 98220 01122",
	"+91 97654 32109",
}

// SyntheticPage generates one page of the synthetic history.
func SyntheticPage(page, limit int) Page {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	start := (page - 1) * limit
	records := make([]CallRecord, 0, limit)
	for i := start; i < start+limit && i < syntheticTotal; i++ {
		records = append(records, syntheticRecord(i))
	}

	return Page{
		Records:    records,
		Pagination: Pagination{Page: page, Limit: limit, Total: syntheticTotal},
	}
}

func syntheticRecord(idx int) CallRecord {
	modes := []CommunicationMode{ModeCall, ModeCall, ModeEmail, ModeWhatsApp, ModeSMS}
	types := []InteractionType{TypeQuery, TypeRequest, TypeComplaint, TypeFollowUp}
	resolutions := []Resolution{ResolutionResolved, ResolutionPending, ResolutionInProgress, ResolutionEscalated}
	priorities := []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

	durSecs := 30 + (idx*37)%540
	return CallRecord{
		ID:                fmt.Sprintf("SIM-%06d", idx+1),
		CallID:            fmt.Sprintf("SIMCALL-%06d", idx+1),
		CallerNumber:      syntheticCallers[idx%len(syntheticCallers)],
		AgentID:           fmt.Sprintf("agent-%d", idx%7+1),
		Timestamp:         syntheticBase.Add(-time.Duration(idx) * 47 * time.Minute),
		Duration:          fmt.Sprintf("%dm %ds", durSecs/60, durSecs%60),
		Status:            syntheticStatuses[idx%len(syntheticStatuses)],
		CommunicationMode: modes[idx%len(modes)],
		Type:              types[idx%len(types)],
		Resolution:        resolutions[idx%len(resolutions)],
		Priority:          priorities[idx%len(priorities)],
		Reason:            "General Inquiry",
		Tag:               "simulated",
	}
}
