package catalog

import (
	"agriwater-platform/internal/models"
)

// Variable family tokens. These are the normalizer's output vocabulary;
// the resolver binds them to dataset-specific codes via Coverage.Families.
const (
	FamilyEvapotranspiration = "evapotranspiration"
	FamilyPrecipitation      = "precipitation"
	FamilyAppliedWater       = "applied-water"
	FamilyNetIrrigation      = "net-irrigation"
	FamilyWaterStress        = "water-stress"
	FamilyMaxTemperature     = "max-temperature"
	FamilyMinTemperature     = "min-temperature"
	FamilyMeanTemperature    = "mean-temperature"
	FamilySolarRadiation     = "solar-radiation"
	FamilyWindSpeed          = "wind-speed"
	FamilyHumidity           = "humidity"
	FamilyCropDistribution   = "crop-distribution"
)

// NewOregon builds the production catalog: AgriMet stations, OpenET field
// coverage for Oregon, and the CDL crop table.
func NewOregon() *Catalog {
	return &Catalog{
		Gazetteer: Gazetteer{
			Stations: []string{
				"corvallis", "pendleton", "hood river", "klamath falls", "ontario",
			},
			Cities: []string{
				"corvallis", "hood river", "klamath falls", "hermiston",
				"pendleton", "ontario", "madras",
			},
			Counties: []string{
				"benton", "marion", "klamath", "hood river", "umatilla",
				"malheur", "deschutes", "jackson",
			},
		},
		Crops: CropCatalog{
			1:  {Code: 1, Name: "Corn", Group: "Grains", Synonyms: []string{"maize", "sweet corn"}},
			14: {Code: 14, Name: "Mint", Group: "Herbs", Synonyms: []string{"peppermint", "spearmint"}},
			24: {Code: 24, Name: "Winter Wheat", Group: "Grains", Synonyms: []string{"wheat"}},
			36: {Code: 36, Name: "Alfalfa", Group: "Forage", Synonyms: []string{"lucerne", "hay"}},
			43: {Code: 43, Name: "Potatoes", Group: "Vegetables", Synonyms: []string{"spud", "spuds", "potato"}},
			49: {Code: 49, Name: "Onions", Group: "Vegetables", Synonyms: []string{"onion"}},
			66: {Code: 66, Name: "Cherries", Group: "Orchards", Synonyms: []string{"cherry"}},
			68: {Code: 68, Name: "Apples", Group: "Orchards", Synonyms: []string{"apple"}},
			69: {Code: 69, Name: "Grapes", Group: "Orchards", Synonyms: []string{"grape", "vineyard"}},
			77: {Code: 77, Name: "Pears", Group: "Orchards", Synonyms: []string{"pear"}},
		},
		Coverage: map[models.Dataset]Coverage{
			models.DatasetStationWeather: {
				Dataset: models.DatasetStationWeather,
				Families: map[string]models.VariableCode{
					FamilyMaxTemperature:  models.VarMaxTemp,
					FamilyMinTemperature:  models.VarMinTemp,
					FamilyMeanTemperature: models.VarMeanTemp,
					FamilyPrecipitation:   models.VarPrecip,
					FamilySolarRadiation:  models.VarSolar,
					FamilyWindSpeed:       models.VarWind,
					FamilyHumidity:        models.VarHumidity,
				},
				MinYear:     2015,
				MaxYear:     2024,
				Granularity: models.GranularityDaily,
			},
			models.DatasetFieldAgriculture: {
				Dataset: models.DatasetFieldAgriculture,
				Families: map[string]models.VariableCode{
					FamilyEvapotranspiration: models.VarET,
					FamilyPrecipitation:      models.VarFieldPrecip,
					FamilyAppliedWater:       models.VarAppliedWater,
					FamilyNetIrrigation:      models.VarNetIrrigation,
					FamilyWaterStress:        models.VarWaterStress,
					FamilyCropDistribution:   models.VarCropDist,
				},
				MinYear:     2020,
				MaxYear:     2024,
				Granularity: models.GranularityMonthly,
			},
		},
		VariableSynonyms: map[string]string{
			// Evapotranspiration family.
			"et":                     FamilyEvapotranspiration,
			"eta":                    FamilyEvapotranspiration,
			"evapotranspiration":     FamilyEvapotranspiration,
			"actual evapotranspiration": FamilyEvapotranspiration,
			"crop water consumption": FamilyEvapotranspiration,
			"water consumption":      FamilyEvapotranspiration,
			"consumptive use":        FamilyEvapotranspiration,
			// Precipitation family (ambiguous across datasets).
			"pc":            FamilyPrecipitation,
			"ppt":           FamilyPrecipitation,
			"precip":        FamilyPrecipitation,
			"precipitation": FamilyPrecipitation,
			"rain":          FamilyPrecipitation,
			"rainfall":      FamilyPrecipitation,
			// Applied/irrigation water volume.
			"aw":                      FamilyAppliedWater,
			"applied water":           FamilyAppliedWater,
			"water use":               FamilyAppliedWater,
			"water usage":             FamilyAppliedWater,
			"irrigation":              FamilyAppliedWater,
			"irrigation water":        FamilyAppliedWater,
			"irrigation water applied": FamilyAppliedWater,
			// Net irrigation requirement.
			"niwr":                         FamilyNetIrrigation,
			"net irrigation":               FamilyNetIrrigation,
			"irrigation requirement":       FamilyNetIrrigation,
			"net irrigation water requirement": FamilyNetIrrigation,
			// Water stress.
			"ws c":         FamilyWaterStress,
			"water stress": FamilyWaterStress,
			// Temperatures.
			"mx":                  FamilyMaxTemperature,
			"max temp":            FamilyMaxTemperature,
			"max temperature":     FamilyMaxTemperature,
			"maximum temperature": FamilyMaxTemperature,
			"high temp":           FamilyMaxTemperature,
			"mn":                  FamilyMinTemperature,
			"min temp":            FamilyMinTemperature,
			"min temperature":     FamilyMinTemperature,
			"minimum temperature": FamilyMinTemperature,
			"low temp":            FamilyMinTemperature,
			"obm":                 FamilyMeanTemperature,
			"temp":                FamilyMeanTemperature,
			"temperature":         FamilyMeanTemperature,
			"air temperature":     FamilyMeanTemperature,
			"mean temperature":    FamilyMeanTemperature,
			"average temperature": FamilyMeanTemperature,
			// Solar, wind, humidity.
			"sr":              FamilySolarRadiation,
			"solar":           FamilySolarRadiation,
			"solar radiation": FamilySolarRadiation,
			"sun":             FamilySolarRadiation,
			"radiation":       FamilySolarRadiation,
			"ws":         FamilyWindSpeed,
			"wind":       FamilyWindSpeed,
			"wind speed": FamilyWindSpeed,
			"tu":                FamilyHumidity,
			"humidity":          FamilyHumidity,
			"relative humidity": FamilyHumidity,
			// Crop summary.
			"crop":              FamilyCropDistribution,
			"crops":             FamilyCropDistribution,
			"crop distribution": FamilyCropDistribution,
		},
		FamilyDataset: map[string]models.Dataset{
			FamilyEvapotranspiration: models.DatasetFieldAgriculture,
			FamilyAppliedWater:       models.DatasetFieldAgriculture,
			FamilyNetIrrigation:      models.DatasetFieldAgriculture,
			FamilyWaterStress:        models.DatasetFieldAgriculture,
			FamilyCropDistribution:   models.DatasetFieldAgriculture,
			FamilyMaxTemperature:     models.DatasetStationWeather,
			FamilyMinTemperature:     models.DatasetStationWeather,
			FamilyMeanTemperature:    models.DatasetStationWeather,
			FamilySolarRadiation:     models.DatasetStationWeather,
			FamilyWindSpeed:          models.DatasetStationWeather,
			FamilyHumidity:           models.DatasetStationWeather,
		},
		AmbiguousFamilies: map[string]bool{
			FamilyPrecipitation: true,
		},
		AggregationFunc: map[models.VariableCode]string{
			// Volumetric variables accumulate within a bucket.
			models.VarPrecip:         "sum",
			models.VarFieldPrecip:    "sum",
			models.VarAppliedWater:   "sum",
			models.VarNetIrrigation:  "sum",
			// Intensity variables average.
			models.VarMaxTemp:     "mean",
			models.VarMinTemp:     "mean",
			models.VarMeanTemp:    "mean",
			models.VarSolar:       "mean",
			models.VarWind:        "mean",
			models.VarHumidity:    "mean",
			models.VarET:          "mean",
			models.VarWaterStress: "mean",
			// Crop distribution counts fields.
			models.VarCropDist: "count",
		},
	}
}
