package metro

import "math"

// Station is one Warsaw metro station with its coordinates
type Station struct {
	Name      string
	Latitude  float64
	Longitude float64
}

// Stations covers both metro lines, M1 north-south and M2 east-west
var Stations = []Station{
	// M1
	{"Kabaty", 52.1306, 21.0653},
	{"Natolin", 52.1399, 21.0702},
	{"Imielin", 52.1501, 21.0540},
	{"Stoklosy", 52.1565, 21.0343},
	{"Ursynow", 52.1622, 21.0276},
	{"Sluzew", 52.1731, 21.0253},
	{"Wilanowska", 52.1806, 21.0235},
	{"Wierzbno", 52.1891, 21.0221},
	{"Raclawicka", 52.1955, 21.0190},
	{"Pole Mokotowskie", 52.2089, 21.0095},
	{"Politechnika", 52.2191, 21.0149},
	{"Centrum", 52.2298, 21.0118},
	{"Swietokrzyska", 52.2355, 21.0084},
	{"Ratusz Arsenal", 52.2443, 21.0012},
	{"Dworzec Gdanski", 52.2586, 20.9978},
	{"Plac Wilsona", 52.2693, 20.9872},
	{"Marymont", 52.2747, 20.9722},
	{"Slodowiec", 52.2786, 20.9620},
	{"Stare Bielany", 52.2813, 20.9530},
	{"Wawrzyszew", 52.2861, 20.9424},
	{"Mlociny", 52.2905, 20.9297},
	// M2
	{"Bemowo", 52.2385, 20.9135},
	{"Ulrychow", 52.2390, 20.9278},
	{"Ksiecia Janusza", 52.2387, 20.9420},
	{"Mlynow", 52.2389, 20.9550},
	{"Plocka", 52.2371, 20.9655},
	{"Rondo Daszynskiego", 52.2302, 20.9815},
	{"Rondo ONZ", 52.2325, 20.9979},
	{"Nowy Swiat-Uniwersytet", 52.2353, 21.0185},
	{"Centrum Nauki Kopernik", 52.2416, 21.0264},
	{"Stadion Narodowy", 52.2466, 21.0433},
	{"Dworzec Wilenski", 52.2544, 21.0351},
	{"Szwedzka", 52.2594, 21.0441},
	{"Targowek Mieszkaniowy", 52.2676, 21.0485},
	{"Trocka", 52.2740, 21.0531},
	{"Zacisze", 52.2826, 21.0572},
	{"Kondratowicza", 52.2887, 21.0491},
	{"Brodno", 52.2935, 21.0390},
}

const earthRadiusKm = 6371

// Distance returns the Haversine distance in kilometers between two points
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	rlat1 := lat1 * math.Pi / 180
	rlon1 := lon1 * math.Pi / 180
	rlat2 := lat2 * math.Pi / 180
	rlon2 := lon2 * math.Pi / 180

	dlat := rlat2 - rlat1
	dlon := rlon2 - rlon1

	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(rlat1)*math.Cos(rlat2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// Closest returns the station nearest to the given coordinates and its
// distance in kilometers
func Closest(lat, lon float64) (Station, float64) {
	var closest Station
	minDistance := math.Inf(1)

	for _, station := range Stations {
		d := Distance(lat, lon, station.Latitude, station.Longitude)
		if d < minDistance {
			minDistance = d
			closest = station
		}
	}

	return closest, minDistance
}
