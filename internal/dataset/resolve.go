package dataset

// Candidate variable names, highest priority first.
var (
	SSTCandidates       = []string{"sst", "analysed_sst", "sea_surface_temperature"}
	DHWCandidates       = []string{"dhw", "degree_heating_week"}
	PHCandidates        = []string{"ph", "pH", "ph_total", "ph_T"}
	LatitudeCandidates  = []string{"lat", "latitude"}
	LongitudeCandidates = []string{"lon", "longitude"}
)

// Resolve returns the first candidate present in columns. Matching is exact.
func Resolve(columns []string, candidates ...string) (string, bool) {
	present := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		present[c] = struct{}{}
	}
	for _, c := range candidates {
		if _, ok := present[c]; ok {
			return c, true
		}
	}
	return "", false
}
