package registry

import (
	"time"

	"go.ngs.io/medenv/internal/domain"
)

// Mediterranean reanalysis products:
//   - med-cmcc: MEDSEA_MULTIYEAR_PHY_006_004 (physics, from 1987).
//   - med-ogs:  MEDSEA_MULTIYEAR_BGC_006_008 (biogeochemistry, from 1999).
var (
	physicsStart = time.Date(1987, 1, 1, 0, 0, 0, 0, time.UTC)
	bgcStart     = time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)
)

func physics(name, dataset, variable string, hasDepth bool) domain.Feature {
	return domain.Feature{
		Name:      name,
		DatasetID: dataset,
		Variable:  variable,
		SliceMode: domain.SliceLonLat,
		HasDepth:  hasDepth,
		ValidFrom: physicsStart,
	}
}

func bgc(name, dataset, variable string, hasDepth bool) domain.Feature {
	return domain.Feature{
		Name:      name,
		DatasetID: dataset,
		Variable:  variable,
		SliceMode: domain.SliceLongitudeLatitude,
		HasDepth:  hasDepth,
		ValidFrom: bgcStart,
	}
}

var cmems = mustNew(
	physics("temperature", "med-cmcc-tem-rean-d", "thetao", true),
	physics("salinity", "med-cmcc-sal-rean-d", "so", true),
	physics("eastward-water-velocity", "med-cmcc-cur-rean-d", "uo", true),
	physics("northward-water-velocity", "med-cmcc-cur-rean-d", "vo", true),
	physics("mixed-layer-thickness", "med-cmcc-mld-rean-d", "mlotst", false),
	physics("sea-surface-above-geoid", "med-cmcc-ssh-rean-d", "zos", false),

	bgc("phytoplankton-carbon-biomass", "med-ogs-pft-rean-d", "phyc", true),
	bgc("chlorophyl-a", "med-ogs-pft-rean-d", "chl", true),
	bgc("nitrate", "med-ogs-nut-rean-d", "no3", true),
	bgc("phosphate", "med-ogs-nut-rean-d", "po4", true),
	bgc("ammonium", "med-ogs-nut-rean-d", "nh4", true),
	bgc("net-primary-production", "med-ogs-bio-rean-d", "nppv", true),
	bgc("oxygen", "med-ogs-bio-rean-d", "o2", true),
	bgc("ph", "med-ogs-car-rean-d", "ph", true),
	bgc("dissolved-inorganic-carbon", "med-ogs-car-rean-d", "dissic", true),
	bgc("alkalinity", "med-ogs-car-rean-d", "talk", true),
	bgc("surface-partial-pressure-co2", "med-ogs-co2-rean-d", "spco2", false),
	bgc("surface-co2-flux", "med-ogs-co2-rean-d", "fpco2", false),
)

// CMEMS returns the Copernicus Marine feature table.
func CMEMS() *Registry {
	return cmems
}
