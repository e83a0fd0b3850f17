package app

import (
	"encoding/csv"
	"io"
	"log"
)

// ReferenceSchoolYear is the school year covered by NeighbourHolidays
const ReferenceSchoolYear = "2025-2026"

// referenceHeader matches the MENJ calendar feed so the export can be fed back to the pipeline
var referenceHeader = []string{"Description", "Population", "Date de début", "Date de fin", "Académies", "Zones", "annee_scolaire"}

// NeighbourHolidays returns the hand-authored holiday periods of the neighbouring regions.
// Dates carry the local offset; End is exclusive.
func NeighbourHolidays() []Holiday {
	var holidays []Holiday
	add := func(desc, start, end, academy, zone string) {
		holidays = append(holidays, Holiday{
			Description: desc,
			Start:       start,
			End:         end,
			Academy:     academy,
			Zone:        zone,
			SchoolYear:  ReferenceSchoolYear,
		})
	}

	// Belgium, Flanders
	add("Herfst", "2025-10-27T00:00:00+01:00", "2025-11-02T00:00:00+01:00", "Vlaanderen", "BE_NL")
	add("Wapenstilstand", "2025-11-11T00:00:00+01:00", "2025-11-12T00:00:00+01:00", "Vlaanderen", "BE_NL")
	add("Kerst", "2025-12-22T00:00:00+01:00", "2026-01-04T00:00:00+01:00", "Vlaanderen", "BE_NL")
	add("Krokus", "2026-02-16T00:00:00+01:00", "2026-02-22T00:00:00+01:00", "Vlaanderen", "BE_NL")
	add("Paas", "2026-04-06T00:00:00+02:00", "2026-04-19T00:00:00+02:00", "Vlaanderen", "BE_NL")
	add("1 Mei", "2026-05-01T00:00:00+02:00", "2026-05-02T00:00:00+02:00", "Vlaanderen", "BE_NL")
	add("Hemelvaart", "2026-05-14T00:00:00+02:00", "2026-05-15T00:00:00+02:00", "Vlaanderen", "BE_NL")
	add("Pinkstermaandag", "2026-05-25T00:00:00+02:00", "2026-05-26T00:00:00+02:00", "Vlaanderen", "BE_NL")
	add("Zomer", "2026-07-01T00:00:00+02:00", "2026-08-31T00:00:00+02:00", "Vlaanderen", "BE_NL")

	// Germany, Bavaria
	add("Sommerferien", "2025-08-01T00:00:00+02:00", "2025-09-15T00:00:00+02:00", "Bayern", "DE_BY")
	add("Allerheiligen", "2025-11-03T00:00:00+01:00", "2025-11-07T00:00:00+01:00", "Bayern", "DE_BY")
	add("Weihnachtsferien", "2025-12-22T00:00:00+01:00", "2026-01-05T00:00:00+01:00", "Bayern", "DE_BY")
	add("Frühjahrsferien", "2026-02-16T00:00:00+01:00", "2026-02-20T00:00:00+01:00", "Bayern", "DE_BY")
	add("Osterferien", "2026-03-30T00:00:00+02:00", "2026-04-10T00:00:00+02:00", "Bayern", "DE_BY")
	add("Pfingstferien", "2026-05-26T00:00:00+02:00", "2026-06-05T00:00:00+02:00", "Bayern", "DE_BY")

	// Switzerland, canton of Zurich
	add("Weihnachten", "2025-12-22T00:00:00+01:00", "2026-01-02T00:00:00+01:00", "Kanton Zürich", "CH_ZH")
	add("Sportferien", "2026-02-09T00:00:00+01:00", "2026-02-20T00:00:00+01:00", "Kanton Zürich", "CH_ZH")
	add("Osterferien", "2026-04-02T00:00:00+02:00", "2026-04-06T00:00:00+02:00", "Kanton Zürich", "CH_ZH")
	add("Frühlingsferien", "2026-04-20T00:00:00+02:00", "2026-05-01T00:00:00+02:00", "Kanton Zürich", "CH_ZH")
	add("Auffahrtsferien", "2026-05-14T00:00:00+02:00", "2026-05-15T00:00:00+02:00", "Kanton Zürich", "CH_ZH")
	add("Pfingstmontag", "2026-05-25T00:00:00+02:00", "2026-05-26T00:00:00+02:00", "Kanton Zürich", "CH_ZH")
	add("Sommerferien", "2026-07-13T00:00:00+02:00", "2026-08-14T00:00:00+02:00", "Kanton Zürich", "CH_ZH")

	// Italy, South Tyrol
	add("Ponte Ognissanti", "2025-10-31T00:00:00+01:00", "2025-11-01T00:00:00+01:00", "Alto Adige", "IT_BZ")
	add("Immacolata", "2025-12-08T00:00:00+01:00", "2025-12-09T00:00:00+01:00", "Alto Adige", "IT_BZ")
	add("Natale", "2025-12-22T00:00:00+01:00", "2026-01-06T00:00:00+01:00", "Alto Adige", "IT_BZ")
	add("Carnevale & Olimpiadi", "2026-02-16T00:00:00+01:00", "2026-02-18T00:00:00+01:00", "Alto Adige", "IT_BZ")
	add("Pasqua", "2026-04-02T00:00:00+02:00", "2026-04-08T00:00:00+02:00", "Alto Adige", "IT_BZ")
	add("Liberazione", "2026-04-24T00:00:00+02:00", "2026-04-25T00:00:00+02:00", "Alto Adige", "IT_BZ")
	add("Festa del Lavoro", "2026-05-01T00:00:00+02:00", "2026-05-02T00:00:00+02:00", "Alto Adige", "IT_BZ")
	add("Festa della Repubblica", "2026-06-02T00:00:00+02:00", "2026-06-03T00:00:00+02:00", "Alto Adige", "IT_BZ")

	// Spain, Galicia
	add("Navidad", "2025-12-22T00:00:00+01:00", "2026-01-08T00:00:00+01:00", "Galicia", "ES_GA")
	add("Semana Santa", "2026-04-06T00:00:00+02:00", "2026-04-13T00:00:00+02:00", "Galicia", "ES_GA")
	add("Verano", "2026-06-22T00:00:00+02:00", "2026-09-09T00:00:00+02:00", "Galicia", "ES_GA")

	// Luxembourg
	add("Toussaint", "2025-11-01T00:00:00+01:00", "2025-11-09T00:00:00+01:00", "Luxembourg", "LU")
	add("Saint-Nicolas", "2025-12-06T00:00:00+01:00", "2025-12-07T00:00:00+01:00", "Luxembourg", "LU")
	add("Noël", "2025-12-20T00:00:00+01:00", "2026-01-04T00:00:00+01:00", "Luxembourg", "LU")
	add("Carnaval", "2026-02-14T00:00:00+01:00", "2026-02-22T00:00:00+01:00", "Luxembourg", "LU")
	add("Pâques", "2026-03-28T00:00:00+02:00", "2026-04-12T00:00:00+02:00", "Luxembourg", "LU")
	add("1 Mai", "2026-05-01T00:00:00+02:00", "2026-05-02T00:00:00+02:00", "Luxembourg", "LU")
	add("Europe", "2026-05-09T00:00:00+02:00", "2026-05-10T00:00:00+02:00", "Luxembourg", "LU")
	add("Ascension", "2026-05-14T00:00:00+02:00", "2026-05-14T00:00:00+02:00", "Luxembourg", "LU")
	add("Pentecôte", "2026-05-23T00:00:00+02:00", "2026-05-31T00:00:00+02:00", "Luxembourg", "LU")
	add("Anniv. Grand-Duc", "2026-06-23T00:00:00+02:00", "2026-06-24T00:00:00+02:00", "Luxembourg", "LU")
	add("Été", "2026-07-16T00:00:00+02:00", "2026-09-14T00:00:00+02:00", "Luxembourg", "LU")

	return holidays
}

// WriteReferenceCSV writes holidays as a semicolon-delimited feed with a UTF-8 BOM
func WriteReferenceCSV(w io.Writer, holidays []Holiday) error {
	if _, err := io.WriteString(w, "\ufeff"); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	cw.Comma = ';'
	if err := cw.Write(referenceHeader); err != nil {
		return err
	}
	for _, h := range holidays {
		if err := cw.Write([]string{h.Description, "-", h.Start, h.End, h.Academy, h.Zone, h.SchoolYear}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportReference writes NeighbourHolidays to path
func ExportReference(path string) error {
	holidays := NeighbourHolidays()
	if err := WriteFileAtomic(path, func(w io.Writer) error {
		return WriteReferenceCSV(w, holidays)
	}); err != nil {
		return err
	}
	log.Printf("✅ Reference calendar saved to %s (%d periods)", path, len(holidays))
	return nil
}
