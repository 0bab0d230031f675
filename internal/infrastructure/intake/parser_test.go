package intake

import (
	"strings"
	"testing"

	"github.com/erp/bulkship/internal/domain/shipment"
	"github.com/erp/bulkship/internal/domain/warehouse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenarioALine = "California\tUSPS\tJohn\tDoe\t555-0100\tjohn@x.com\t123 Main St\t\tLos Angeles\tCA\t90001\tUS\tPackage\t12 x 9 x 6\t1.5 lbs\tBeauty products"

func TestParser_ScenarioA(t *testing.T) {
	p := NewParser()

	d, err := p.ParseLine(1, scenarioALine)
	require.NoError(t, err)

	assert.Equal(t, shipment.StrategyPositional, d.Strategy)
	assert.Equal(t, "California", d.OriginRegion)
	assert.Equal(t, "USPS", d.CarrierPreference)
	assert.Equal(t, "John Doe", d.RecipientName())
	assert.Equal(t, "555-0100", d.Phone)
	assert.Equal(t, "john@x.com", d.Email)
	assert.Equal(t, "123 Main St", d.Street1)
	assert.Empty(t, d.Street2)
	assert.Equal(t, "Los Angeles", d.City)
	assert.Equal(t, "CA", d.State)
	assert.Equal(t, "90001", d.Zip)
	assert.Equal(t, "US", d.Country)
	assert.Equal(t, "Beauty products", d.Contents)
	assert.Nil(t, d.Sender)

	v := shipment.Validate(1, d, nil)
	require.True(t, v.Valid, v.Messages())
	assert.Equal(t, 24.0, v.WeightOz)
	assert.Equal(t, 12.0, v.Length)
	assert.Equal(t, 9.0, v.Width)
	assert.Equal(t, 6.0, v.Height)
	assert.Equal(t, shipment.CategoryBeauty, v.Category)
}

func TestParser_PositionalReferenceOffset(t *testing.T) {
	d, err := NewParser().ParseLine(3, "ORD-1001\tBatch 7\t"+scenarioALine)

	require.NoError(t, err)
	assert.Equal(t, "California", d.OriginRegion)
	assert.Equal(t, "USPS", d.CarrierPreference)
	assert.Equal(t, "Beauty products", d.Contents)
}

func TestParser_PositionalSenderBlock(t *testing.T) {
	sender := []string{"Acme Returns", "Acme Inc", "9 Elm St", "", "Austin", "TX", "78701", "US", "512-555-0100"}
	line := scenarioALine + "\t" + strings.Join(sender, "\t") + "\tFragile"

	d, err := NewParser().ParseLine(1, line)

	require.NoError(t, err)
	require.NotNil(t, d.Sender)
	assert.Equal(t, shipment.Address{
		Name: "Acme Returns", Company: "Acme Inc", Street1: "9 Elm St", City: "Austin",
		State: "TX", Zip: "78701", Country: "US", Phone: "512-555-0100",
	}, *d.Sender)
	assert.Equal(t, "Beauty products Fragile", d.Contents)
}

func TestParser_PositionalSenderBlockWithoutTrailingCells(t *testing.T) {
	tests := []struct {
		name   string
		sender []string
		want   shipment.Address
	}{
		{
			name:   "phone missing",
			sender: []string{"Acme Shipper", "Acme", "1 Market St", "", "San Francisco", "CA", "94105", "US"},
			want: shipment.Address{
				Name: "Acme Shipper", Company: "Acme", Street1: "1 Market St",
				City: "San Francisco", State: "CA", Zip: "94105", Country: "US",
			},
		},
		{
			name:   "only name company and street",
			sender: []string{"Acme Shipper", "", "1 Market St"},
			want:   shipment.Address{Name: "Acme Shipper", Street1: "1 Market St"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := scenarioALine + "\t" + strings.Join(tt.sender, "\t")

			d, err := NewParser().ParseLine(1, line)

			require.NoError(t, err)
			require.NotNil(t, d.Sender)
			assert.Equal(t, tt.want, *d.Sender)
			assert.Equal(t, "Beauty products", d.Contents)
		})
	}
}

func TestParser_ContentsJoinedWithoutSender(t *testing.T) {
	d, err := NewParser().ParseLine(1, scenarioALine+"\tand a lipstick\t\tgift")

	require.NoError(t, err)
	assert.Nil(t, d.Sender)
	assert.Equal(t, "Beauty products and a lipstick gift", d.Contents)
}

func TestParser_HeuristicFallback(t *testing.T) {
	t.Run("short line with shuffled columns", func(t *testing.T) {
		line := "Jane Smith\t456 Oak Avenue\tApt 2\tAustin\tTX\t78701\tjane@example.com\t512-555-0188\t2 lb\t10x8x4\tCoffee beans"

		d, err := NewParser().ParseLine(2, line)

		require.NoError(t, err)
		assert.Equal(t, shipment.StrategyHeuristic, d.Strategy)
		assert.Equal(t, "Jane", d.FirstName)
		assert.Equal(t, "Smith", d.LastName)
		assert.Equal(t, "456 Oak Avenue", d.Street1)
		assert.Equal(t, "Apt 2", d.Street2)
		assert.Equal(t, "Austin", d.City)
		assert.Equal(t, "TX", d.State)
		assert.Equal(t, "78701", d.Zip)
		assert.Equal(t, "US", d.Country)
		assert.Equal(t, "jane@example.com", d.Email)
		assert.Equal(t, "512-555-0188", d.Phone)
		assert.Equal(t, "2 lb", d.RawWeight)
		assert.Equal(t, "10x8x4", d.RawDimensions)
		assert.Equal(t, "Coffee beans", d.Contents)
	})

	t.Run("origin region and split name columns", func(t *testing.T) {
		line := "Texas\tBob\tJones\t9 Elm St\tDallas\tTX\t75201\tUSA\t16 oz\t6x6x6\tT-shirt"

		d, err := NewParser(WithRegions(warehouse.DefaultDirectory())).ParseLine(1, line)

		require.NoError(t, err)
		assert.Equal(t, "Texas", d.OriginRegion)
		assert.Equal(t, "Bob", d.FirstName)
		assert.Equal(t, "Jones", d.LastName)
		assert.Equal(t, "Dallas", d.City)
		assert.Equal(t, "USA", d.Country)
		assert.Equal(t, "T-shirt", d.Contents)
	})

	t.Run("second email and phone go to the sender", func(t *testing.T) {
		line := "Jane Smith\t456 Oak Avenue\tAustin\tTX\t78701\tUS\tjane@example.com\tops@shop.com\t512-555-0188\t212-555-0100\t2 lb"

		d, err := NewParser().ParseLine(1, line)

		require.NoError(t, err)
		assert.Equal(t, "jane@example.com", d.Email)
		assert.Equal(t, "512-555-0188", d.Phone)
		require.NotNil(t, d.Sender)
		assert.Equal(t, "ops@shop.com", d.Sender.Email)
		assert.Equal(t, "212-555-0100", d.Sender.Phone)
	})

	t.Run("contents falls back to last unclassified token", func(t *testing.T) {
		line := "Jane Smith\t456 Oak Avenue\tAustin\tTX\t78701\tUS\t2 lb\tWidget"

		d, err := NewParser().ParseLine(1, line)

		require.NoError(t, err)
		assert.Equal(t, "Widget", d.Contents)
	})
}

func TestParser_Rejects(t *testing.T) {
	t.Run("missing street everywhere", func(t *testing.T) {
		line := strings.Replace(scenarioALine, "123 Main St", "", 1)

		_, err := NewParser().ParseLine(5, line)

		require.Error(t, err)
		assert.ErrorIs(t, err, shipment.ErrInvalidShipment)
		var pe *ParseError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, 5, pe.Line)
		assert.Contains(t, pe.Missing, "street1")
		assert.Contains(t, err.Error(), "line 5")
	})

	t.Run("missing weight", func(t *testing.T) {
		line := strings.Replace(scenarioALine, "1.5 lbs", "", 1)

		_, err := NewParser().ParseLine(1, line)

		var pe *ParseError
		require.ErrorAs(t, err, &pe)
		assert.Contains(t, pe.Missing, "weight")
	})

	t.Run("present but malformed field", func(t *testing.T) {
		line := strings.Replace(scenarioALine, "john@x.com", "john.x.com", 1)

		_, err := NewParser().ParseLine(1, line)

		var pe *ParseError
		require.ErrorAs(t, err, &pe)
		assert.Empty(t, pe.Missing)
		require.Len(t, pe.Invalid, 1)
		assert.Equal(t, "email", pe.Invalid[0].Field)
		assert.Equal(t, shipment.ErrCodeInvalidFormat, pe.Invalid[0].Code)
	})
}

func TestParser_FreeText(t *testing.T) {
	t.Run("single recipient with annotations", func(t *testing.T) {
		text := strings.Join([]string{
			"John Doe",
			"123 Main St",
			"Apt 4",
			"Springfield, IL 62704",
			"",
			"Email: john@example.com",
			"Phone: 217-555-0100",
			"Dimensions: 10 x 8 x 4",
			"Weight: 2 lb",
			"Customs item: Wool sweater",
			"Quantity: 2",
			"Price: $40",
		}, "\n")

		d, err := NewParser().ParseRecord(Record{Line: 7, Text: text, Kind: KindFreeText})

		require.NoError(t, err)
		assert.Equal(t, shipment.StrategyFreeText, d.Strategy)
		assert.Equal(t, "John", d.FirstName)
		assert.Equal(t, "Doe", d.LastName)
		assert.Equal(t, "123 Main St", d.Street1)
		assert.Equal(t, "Apt 4", d.Street2)
		assert.Equal(t, "Springfield", d.City)
		assert.Equal(t, "IL", d.State)
		assert.Equal(t, "62704", d.Zip)
		assert.Equal(t, "US", d.Country)
		assert.Equal(t, "john@example.com", d.Email)
		assert.Equal(t, "217-555-0100", d.Phone)
		assert.Equal(t, "10 x 8 x 4", d.RawDimensions)
		assert.Equal(t, "2 lb", d.RawWeight)
		assert.Equal(t, "Wool sweater (2 x $40)", d.Contents)
		assert.Nil(t, d.Sender)

		v := shipment.Validate(7, d, nil)
		assert.True(t, v.Valid, v.Messages())
		assert.Equal(t, shipment.CategoryApparel, v.Category)
	})

	t.Run("labeled sender and international recipient", func(t *testing.T) {
		text := strings.Join([]string{
			"From:",
			"Acme Widgets",
			"500 Industrial Pkwy",
			"Dallas, TX 75201",
			"",
			"To:",
			"Maria Garcia",
			"Calle Mayor 12",
			"28013 Madrid",
			"Spain",
			"Weight: 3 lb",
		}, "\n")

		d, err := NewParser().ParseLine(1, text)

		require.NoError(t, err)
		assert.Equal(t, "Maria Garcia", d.RecipientName())
		assert.Equal(t, "Calle Mayor 12", d.Street1)
		assert.Equal(t, "Madrid", d.City)
		assert.Equal(t, "28013", d.Zip)
		assert.Equal(t, "Spain", d.Country)
		require.NotNil(t, d.Sender)
		assert.Equal(t, "Acme Widgets", d.Sender.Name)
		assert.Equal(t, "500 Industrial Pkwy", d.Sender.Street1)
		assert.Equal(t, "Dallas", d.Sender.City)
		assert.Equal(t, "US", d.Sender.Country)
	})

	t.Run("no address", func(t *testing.T) {
		_, err := NewParser().ParseLine(4, "Weight: 2 lb\nPrice: $10")

		var pe *ParseError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, shipment.StrategyFreeText, pe.Strategy)
		assert.Contains(t, err.Error(), ErrNoAddress.Error())
	})

	t.Run("missing weight is rejected", func(t *testing.T) {
		_, err := NewParser().ParseLine(1, "John Doe\n123 Main St\nSpringfield, IL 62704")

		var pe *ParseError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, []string{"weight"}, pe.Missing)
	})
}

func TestFreeTextToColumns(t *testing.T) {
	t.Run("two unlabeled sections are sender then recipient", func(t *testing.T) {
		text := "Acme Widgets\n500 Industrial Pkwy\nDallas, TX 75201\n\nJane Roe\n9 Elm St\nToronto, ON M5V 2T6\nCanada"

		cols, err := FreeTextToColumns(text)

		require.NoError(t, err)
		require.Len(t, cols, SenderColumns)
		assert.Equal(t, "Jane", cols[colFirstName])
		assert.Equal(t, "Roe", cols[colLastName])
		assert.Equal(t, "Toronto", cols[colCity])
		assert.Equal(t, "ON", cols[colState])
		assert.Equal(t, "M5V 2T6", cols[colZip])
		assert.Equal(t, "Canada", cols[colCountry])
		assert.Equal(t, "Acme Widgets", cols[colSenderName])
		assert.Equal(t, "75201", cols[colSenderZip])
	})

	t.Run("contents forms", func(t *testing.T) {
		base := "Jane Roe\n9 Elm St\nAustin, TX 78701\n"
		cases := map[string]string{
			"Item: Candle\nPrice: $12.50":                "Candle ($12.50 each)",
			"Item: Candle\nQty: 3":                       "3 x Candle",
			"Contents: Candle":                           "Candle",
			"Customs item: Candle\nQty: 2\nValue: 1,200": "Candle (2 x $1200)",
		}
		for annotations, want := range cases {
			cols, err := FreeTextToColumns(base + annotations)
			require.NoError(t, err)
			assert.Equal(t, want, cols[colContents], annotations)
		}
	})

	t.Run("tabs are stripped", func(t *testing.T) {
		cols, err := FreeTextToColumns("Jane Roe\n9 Elm St\nAustin, TX 78701\nItem: Candle\tholder")

		require.NoError(t, err)
		for _, c := range cols {
			assert.NotContains(t, c, "\t")
		}
	})
}
