package core

var fallbackRecords = []SpendingRecord{
	{Department: "Defense", Year: 2022, Amount: 750},
	{Department: "Education", Year: 2022, Amount: 150},
	{Department: "Healthcare", Year: 2022, Amount: 200},
	{Department: "Defense", Year: 2023, Amount: 780},
	{Department: "Education", Year: 2023, Amount: 160},
	{Department: "Healthcare", Year: 2023, Amount: 210},
	{Department: "Transportation", Year: 2022, Amount: 100},
	{Department: "Transportation", Year: 2023, Amount: 110},
}

// FallbackRecords returns a fresh copy of the built-in dataset shown when the
// spending service cannot be reached.
func FallbackRecords() []SpendingRecord {
	out := make([]SpendingRecord, len(fallbackRecords))
	copy(out, fallbackRecords)
	return out
}
