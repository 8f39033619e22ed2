package scenario

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/scenariotools/pipekit/pipeline"
)

// LoadCitiesArgs parametrizes LoadCities.
type LoadCitiesArgs struct {
	// Path is the cities CSV file (Country,City,Lat,Lon).
	Path string
}

// LoadCities returns a populate function reading candidate cities from a
// CSV file.
func LoadCities(args LoadCitiesArgs) pipeline.PopulateFunc {
	return func(ctx context.Context, pctx *pipeline.Context) (*pipeline.Collection, error) {
		file, err := os.Open(args.Path)
		if err != nil {
			return nil, fmt.Errorf("scenario: opening cities file: %w", err)
		}
		defer file.Close()

		reader := csv.NewReader(file)
		records, err := reader.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("scenario: reading cities file: %w", err)
		}
		if len(records) == 0 {
			return pipeline.FromSlice([]City{}), nil
		}

		cities := make([]City, 0, len(records)-1)
		for _, record := range records[1:] {
			if len(record) < 4 {
				return nil, fmt.Errorf("scenario: malformed city record %v", record)
			}
			lat, err := strconv.ParseFloat(record[2], 64)
			if err != nil {
				return nil, fmt.Errorf("scenario: parsing latitude of %q: %w", record[1], err)
			}
			lon, err := strconv.ParseFloat(record[3], 64)
			if err != nil {
				return nil, fmt.Errorf("scenario: parsing longitude of %q: %w", record[1], err)
			}
			cities = append(cities, City{
				Country: record[0],
				Name:    record[1],
				Lat:     lat,
				Lon:     lon,
			})
		}

		zerolog.Ctx(ctx).Info().Int("cities", len(cities)).Msg("loaded cities")
		return pipeline.FromSlice(cities), nil
	}
}

// BoundingBoxArgs parametrizes ComputeBoundingBox.
type BoundingBoxArgs struct {
	// RadiusKm is the extraction radius around the city center.
	RadiusKm float64
}

// ComputeBoundingBox computes the extraction bounding box around a city.
// Bind it with pipeline.BindStep(BoundingBoxArgs{...}, ComputeBoundingBox).
func ComputeBoundingBox(args BoundingBoxArgs, ctx context.Context, pctx *pipeline.Context, city City) (BoundedCity, error) {
	if city.Lat <= -90 || city.Lat >= 90 {
		return BoundedCity{}, fmt.Errorf("scenario: city %q has invalid latitude %g", city.Name, city.Lat)
	}
	box := boundingBoxAround(city.Lat, city.Lon, args.RadiusKm)
	zerolog.Ctx(ctx).Debug().
		Str("city", city.Name).
		Stringer("box", box).
		Msg("computed bounding box")
	return BoundedCity{City: city, Box: box}, nil
}

// CountryFilterArgs parametrizes InCountry.
type CountryFilterArgs struct {
	Country string
}

// InCountry keeps cities of a single country. Bind it with
// pipeline.BindFilterStep(CountryFilterArgs{...}, InCountry).
func InCountry(args CountryFilterArgs, ctx context.Context, pctx *pipeline.Context, city City) (bool, error) {
	return city.Country == args.Country, nil
}

// WriteBoundedCities writes the bounded cities to cities.csv inside the
// run's "cities" output folder and passes the collection through unchanged.
func WriteBoundedCities(ctx context.Context, pctx *pipeline.Context, items []any) ([]any, error) {
	folder, err := pctx.OutputFolder("cities")
	if err != nil {
		return nil, err
	}

	path := filepath.Join(folder, "cities.csv")
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("scenario: creating %s: %w", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"Country", "City", "Lat", "Lon", "West", "South", "East", "North"}); err != nil {
		return nil, fmt.Errorf("scenario: writing header: %w", err)
	}
	for _, item := range items {
		city, ok := item.(BoundedCity)
		if !ok {
			return nil, fmt.Errorf("scenario: expected BoundedCity, got %T", item)
		}
		record := []string{
			city.Country,
			city.Name,
			formatFloat(city.Lat),
			formatFloat(city.Lon),
			formatFloat(city.Box.West),
			formatFloat(city.Box.South),
			formatFloat(city.Box.East),
			formatFloat(city.Box.North),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("scenario: writing %q: %w", city.Name, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("scenario: flushing %s: %w", path, err)
	}

	return items, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// Register adds the package's stages to a registry under their canonical
// names, ready for YAML-defined programs.
func Register(reg *pipeline.Registry, cities LoadCitiesArgs, box BoundingBoxArgs) {
	reg.RegisterPopulate("load_cities", LoadCities(cities))
	reg.RegisterStep("compute_bounding_box", pipeline.BindStep(box, ComputeBoundingBox))
	reg.RegisterReduce("write_bounded_cities", WriteBoundedCities)
}
