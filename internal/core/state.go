package core

type (
	// State is the dashboard state. It only changes through Reduce.
	State struct {
		Loading      bool
		Records      []SpendingRecord
		Selection    FilterSelection
		UsedFallback bool
		// FetchError is the reason the fallback dataset was installed, if any.
		FetchError string
	}

	// Event is a state transition input.
	Event interface {
		apply(State) State
	}

	// FetchResolved installs the fetched record set.
	FetchResolved struct {
		Records []SpendingRecord
	}

	// FetchFailed installs the fallback dataset.
	FetchFailed struct {
		Err error
	}

	// YearChanged selects a year, or clears the year filter when empty.
	YearChanged struct {
		Year string
	}

	// DepartmentChanged selects a department, or clears the filter when empty.
	DepartmentChanged struct {
		Department string
	}

	// DashboardView is everything the presentation layer renders.
	DashboardView struct {
		Years        []int           `json:"years"`
		Departments  []string        `json:"departments"`
		Selection    FilterSelection `json:"selection"`
		Pie          []PieSlice      `json:"pie"`
		PieTotal     float64         `json:"pieTotal"`
		Series       []TimeSeries    `json:"series"`
		UsedFallback bool            `json:"usedFallback"`
	}
)

// InitialState is the state before the record set is fetched.
func InitialState() State {
	return State{Loading: true}
}

// Reduce returns the state following e. s is not modified.
func Reduce(s State, e Event) State {
	if e == nil {
		return s
	}
	return e.apply(s)
}

func (e FetchResolved) apply(s State) State {
	s.Loading = false
	s.Records = append([]SpendingRecord(nil), e.Records...)
	s.UsedFallback = false
	s.FetchError = ""
	return s
}

func (e FetchFailed) apply(s State) State {
	s.Loading = false
	s.Records = FallbackRecords()
	s.UsedFallback = true
	if e.Err != nil {
		s.FetchError = e.Err.Error()
	}
	return s
}

func (e YearChanged) apply(s State) State {
	s.Selection.Year = NewSelection(e.Year, "").Year
	return s
}

func (e DepartmentChanged) apply(s State) State {
	s.Selection.Department = NewSelection("", e.Department).Department
	return s
}

// View derives the rendered data from s. The pie chart honours the selection;
// the time series always cover the full record set.
func View(s State) (DashboardView, error) {
	totals, err := CalculateDepartmentTotals(Filter(s.Records, s.Selection))
	if err != nil {
		return DashboardView{}, err
	}
	pie := PieChartSeries(totals)
	pieTotal, err := PieTotal(pie)
	if err != nil {
		return DashboardView{}, err
	}

	departments := Departments(s.Records)
	return DashboardView{
		Years:        Years(s.Records),
		Departments:  departments,
		Selection:    s.Selection,
		Pie:          pie,
		PieTotal:     pieTotal,
		Series:       BuildTimeSeries(s.Records, departments),
		UsedFallback: s.UsedFallback,
	}, nil
}

// ViewOrFallback is View that swaps in the fallback dataset when the loaded
// records cannot be summarised. The view is always renderable; a non-nil
// error is the reason the fallback was used.
func ViewOrFallback(s State) (DashboardView, error) {
	v, err := View(s)
	if err != nil && !s.UsedFallback {
		// Fallback totals are small constants and cannot overflow.
		v, _ = View(Reduce(s, FetchFailed{Err: err}))
	}
	return v, err
}
