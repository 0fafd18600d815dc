package domain

// UserLocation is one co-exposure row: the impacted email shared the named
// location with the reported user on the given day. A user impacted at two
// locations, or at the same location on two days, yields one row per distinct
// (email, date, locationName) triple.
type UserLocation struct {
	// Email is the impacted user's email.
	Email string `json:"email"`
	// Date is the exposure day, formatted YYYY-MM-DD (UTC).
	Date string `json:"date"`
	// LocationName is the display name of the shared location.
	LocationName string `json:"locationName"`
}

// ExposureReport is an immutable snapshot answering: who shared a location
// with the reported user during overlapping exposure windows? It is derived
// from the check-in log at query time and never persisted as source of truth.
type ExposureReport struct {
	// ImpactedUsersCount is the number of distinct impacted emails across
	// all visited locations and windows.
	ImpactedUsersCount int `json:"impactedUsersCount"`
	// ImpactedUsersMailtoLink is a mailto: URI addressing all impacted
	// users. It may be truncated to respect URI length limits, in which
	// case the CSV below is the authoritative list.
	ImpactedUsersMailtoLink string `json:"impactedUsersMailtoLink"`
	// ImpactedUsersEmailsCsv lists impacted emails one per line in
	// first-seen order.
	ImpactedUsersEmailsCsv string `json:"impactedUsersEmailsCsvData"`
	// ImpactedUsersEmailsCsvFileName is the suggested download name for
	// the impacted emails CSV.
	ImpactedUsersEmailsCsvFileName string `json:"impactedUsersEmailsCsvFileName"`

	// ReportedUserLocations lists the co-exposure rows, sorted by date,
	// then location name, then email.
	ReportedUserLocations []UserLocation `json:"reportedUserLocations"`
	// ReportedUserLocationsCsv is the co-exposure table rendered as CSV
	// with an email,date,locationName header.
	ReportedUserLocationsCsv string `json:"reportedUserLocationsCsv"`
	// ReportedUserLocationsCsvFileName is the suggested download name for
	// the visit history CSV.
	ReportedUserLocationsCsvFileName string `json:"reportedUserLocationsCsvFileName"`

	// StartDate and EndDate echo the query window, formatted YYYY-MM-DD.
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// LocationVisits is the CSV export of every check-in at one location inside
// a time range.
type LocationVisits struct {
	// Csv holds the rendered rows with an email,timestamp header.
	Csv string `json:"csvData"`
	// CsvFileName is the suggested download name.
	CsvFileName string `json:"csvFileName"`
}
