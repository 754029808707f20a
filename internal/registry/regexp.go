package registry

import "regexp"

// regexpMatch backs the matches() string function. Stdlib regexp is used
// here deliberately: no repo in the retrieval pack reaches for a
// third-party regex engine (RE2 via stdlib already covers FHIRPath's
// matches()/replaceMatches() needs), so there is no ecosystem idiom to
// follow instead.
func regexpMatch(pattern, s string) (bool, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false, err
	}
	return re.MatchString(s), nil
}
