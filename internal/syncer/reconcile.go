package syncer

import (
	"strings"

	"timetable/internal/schedule"
	"timetable/internal/textutil"
)

// nameMatchThreshold is the minimum name similarity for a fetched faculty to
// inherit the code of a cached one.
const nameMatchThreshold = 0.8

// reconcileFaculties maps fetched faculties onto the codes already cached so
// that a source spelling codes differently (the website uses lowercase slugs,
// the API uppercase abbreviations) does not drop and re-create every faculty
// with its groups. A fetched faculty inherits a cached code when the codes
// match case-insensitively or, failing that, when the names are similar
// enough. The returned map gives, for every resulting code, the code the
// source itself uses.
func reconcileFaculties(cached, fetched []schedule.Faculty) ([]schedule.Faculty, map[string]string) {
	byFold := make(map[string]string, len(cached))
	names := make(map[string]string, len(cached))
	for _, f := range cached {
		byFold[strings.ToLower(f.Code)] = f.Code
		names[f.Code] = f.Name
	}

	taken := make(map[string]struct{}, len(fetched))
	upstream := make(map[string]string, len(fetched))
	out := make([]schedule.Faculty, 0, len(fetched))
	for _, f := range fetched {
		original := strings.TrimSpace(f.Code)
		code := original
		if match, ok := byFold[strings.ToLower(original)]; ok {
			code = match
		} else if match, _, ok := textutil.BestMatch(f.Name, names, nameMatchThreshold); ok {
			code = match
		}
		if _, dup := taken[code]; dup {
			code = original
		}
		if _, dup := taken[code]; dup {
			continue
		}
		taken[code] = struct{}{}
		delete(names, code)
		upstream[code] = original
		f.Code = code
		if code != original {
			f.ID = ""
		}
		out = append(out, f)
	}
	return out, upstream
}
