package config

type ColumnKind string

const (
	KindText    ColumnKind = "text"
	KindNumber  ColumnKind = "number"
	KindPercent ColumnKind = "percent"
	KindMoney   ColumnKind = "money"
	KindStatus  ColumnKind = "status"
)

// Column describes one column of the weekly driver table.
type Column struct {
	Key           string     `json:"key"`
	Label         string     `json:"label"`
	Kind          ColumnKind `json:"kind"`
	Sortable      bool       `json:"sortable"`
	Pinnable      bool       `json:"pinnable"`
	DefaultPinned bool       `json:"defaultPinned"`
	Exportable    bool       `json:"exportable"`
}

// Columns is the ordered column metadata; order here is display order.
var Columns = []Column{
	{Key: "driver_id", Label: "Driver ID", Kind: KindText, Sortable: true, Pinnable: true, DefaultPinned: true, Exportable: true},
	{Key: "driver_name", Label: "Driver", Kind: KindText, Sortable: true, Pinnable: true, DefaultPinned: true, Exportable: true},
	{Key: "miles", Label: "Miles", Kind: KindNumber, Sortable: true, Pinnable: true, Exportable: true},
	{Key: "safety_score", Label: "Safety Score", Kind: KindNumber, Sortable: true, Pinnable: true, Exportable: true},
	{Key: "speeding_events", Label: "Speeding", Kind: KindNumber, Sortable: true, Pinnable: true, Exportable: true},
	{Key: "mpg", Label: "MPG", Kind: KindNumber, Sortable: true, Pinnable: true, Exportable: true},
	{Key: "tenure_weeks", Label: "Tenure (wks)", Kind: KindNumber, Sortable: true, Pinnable: true, Exportable: true},
	{Key: "gross", Label: "Gross", Kind: KindMoney, Sortable: true, Pinnable: true, Exportable: true},
	{Key: "bonus_total", Label: "Bonus", Kind: KindPercent, Sortable: true, Exportable: true},
	{Key: "penalty_total", Label: "Penalty", Kind: KindPercent, Sortable: true, Exportable: true},
	{Key: "tpog_percent", Label: "TPOG %", Kind: KindPercent, Sortable: true, Pinnable: true, DefaultPinned: true, Exportable: true},
	{Key: "pay", Label: "Pay", Kind: KindMoney, Sortable: true, Pinnable: true, Exportable: true},
	{Key: "dispatch_status", Label: "Dispatch", Kind: KindStatus, Sortable: true, Pinnable: true, Exportable: true},
	{Key: "needs_review", Label: "Review", Kind: KindStatus, Sortable: true, Exportable: true},
	{Key: "locked", Label: "Locked", Kind: KindStatus, Sortable: true, Pinnable: true, Exportable: true},
	{Key: "note", Label: "Note", Kind: KindText, Exportable: true},
}

func ColumnByKey(key string) (Column, bool) {
	for _, c := range Columns {
		if c.Key == key {
			return c, true
		}
	}
	return Column{}, false
}
