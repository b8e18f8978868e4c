package registry

import (
	"fmt"

	"go.ngs.io/medenv/internal/domain"
)

// DefaultWOAResolution is the finest World Ocean Atlas grid, in degrees.
const DefaultWOAResolution = 0.25

type woaVariable struct {
	name   string
	code   string // Single letter prefix of the WOA variable (e.g., "t" for t_an).
	period string // "decav" for physics, "all" for nutrients and oxygen.
	grids  []string
}

var woaVariables = []woaVariable{
	{"temperature", "t", "decav", []string{"04", "01", "5d"}},
	{"salinity", "s", "decav", []string{"04", "01", "5d"}},
	{"oxygen", "o", "all", []string{"01", "5d"}},
	{"nitrate", "n", "all", []string{"01", "5d"}},
	{"phosphate", "p", "all", []string{"01", "5d"}},
	{"silicate", "i", "all", []string{"01", "5d"}},
}

// WOAGrid maps a resolution in degrees to the WOA grid code.
func WOAGrid(resolution float64) (string, error) {
	switch resolution {
	case 0.25:
		return "04", nil
	case 1:
		return "01", nil
	case 5:
		return "5d", nil
	default:
		return "", fmt.Errorf("unsupported World Ocean Atlas resolution %g (expected 0.25, 1 or 5)", resolution)
	}
}

// WOA returns the World Ocean Atlas 2018 annual climatology table for a grid resolution.
// The dataset identifiers are file names, e.g. "woa18_decav_t00_04.nc".
func WOA(resolution float64) (*Registry, error) {
	grid, err := WOAGrid(resolution)
	if err != nil {
		return nil, err
	}
	var features []domain.Feature
	for _, v := range woaVariables {
		if !contains(v.grids, grid) {
			continue
		}
		features = append(features, domain.Feature{
			Name:      v.name,
			DatasetID: fmt.Sprintf("woa18_%s_%s00_%s.nc", v.period, v.code, grid),
			Variable:  v.code + "_an",
			SliceMode: domain.SliceLonLat,
			HasDepth:  true,
		})
	}
	return New(features...)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
