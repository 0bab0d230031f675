package customs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/erp/bulkship/internal/domain/shipment"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockItemSource struct {
	mock.Mock
}

func (m *mockItemSource) Items(ctx context.Context, req Request) ([]shipment.CustomsItem, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]shipment.CustomsItem), args.Error(1)
}

type failingTariffs struct{}

func (failingTariffs) HSCode(context.Context, string, shipment.Category) (string, error) {
	return "", errors.New("tariff service unavailable")
}

func TestIsInternational(t *testing.T) {
	assert.False(t, IsInternational("US", "us"))
	assert.False(t, IsInternational("United States", "USA"))
	assert.True(t, IsInternational("US", "CA"))
	assert.True(t, IsInternational("GB", "Germany"))
}

func TestChooseIncoterm(t *testing.T) {
	assert.Equal(t, shipment.IncotermDDP, ChooseIncoterm("FedEx- International Priority"))
	assert.Equal(t, shipment.IncotermDDP, ChooseIncoterm("UPS"))
	assert.Equal(t, shipment.IncotermDDP, ChooseIncoterm("DHL Express"))
	assert.Equal(t, shipment.IncotermDDU, ChooseIncoterm("USPS- First Class"))
	assert.Equal(t, shipment.IncotermDDU, ChooseIncoterm("Asendia"))
	assert.Equal(t, shipment.IncotermDDU, ChooseIncoterm(""))
}

func TestContentsTypeFor(t *testing.T) {
	assert.Equal(t, ContentsGift, ContentsTypeFor("Birthday gift - scarf"))
	assert.Equal(t, ContentsDocuments, ContentsTypeFor("Legal documents"))
	assert.Equal(t, ContentsSample, ContentsTypeFor("Fabric samples"))
	assert.Equal(t, ContentsReturnedGoods, ContentsTypeFor("Customer return"))
	assert.Equal(t, ContentsMerchandise, ContentsTypeFor("Beauty products"))
}

func TestBuilder_Build(t *testing.T) {
	signers := NewSignerDirectory(map[string]string{"Acme Corp": "Jane Roe"})
	b := NewBuilder(nil, signers)

	decl, warnings := b.Build(context.Background(), Request{
		Contents:          "Silk scarf (2 x $30.00); Leather wallet ($45 each)",
		Category:          shipment.CategoryApparel,
		WeightOz:          24,
		OriginCountry:     "United States",
		DestCountry:       "GB",
		SenderCompany:     "ACME CORP",
		CarrierPreference: "UPS- Worldwide Saver",
	})

	assert.Empty(t, warnings)
	require.Len(t, decl.Items, 2)

	assert.Equal(t, "Silk scarf", decl.Items[0].Description)
	assert.Equal(t, 2, decl.Items[0].Quantity)
	assert.True(t, decl.Items[0].Value.Equal(decimal.RequireFromString("30")))
	assert.Equal(t, 16.0, decl.Items[0].WeightOz)
	assert.Equal(t, "610910", decl.Items[0].HSCode)
	assert.Equal(t, "US", decl.Items[0].OriginCountry)

	assert.Equal(t, "Leather wallet", decl.Items[1].Description)
	assert.Equal(t, 1, decl.Items[1].Quantity)
	assert.True(t, decl.Items[1].Value.Equal(decimal.RequireFromString("45")))
	assert.Equal(t, 8.0, decl.Items[1].WeightOz)

	assert.Equal(t, "Jane Roe", decl.SignerName)
	assert.Equal(t, shipment.IncotermDDP, decl.Incoterm)
	assert.Equal(t, ContentsMerchandise, decl.ContentsType)
	assert.True(t, decl.Certified)
	assert.True(t, decl.TotalValue().Equal(decimal.RequireFromString("105")))
	assert.Empty(t, shipment.CheckStruct(decl))
}

func TestBuilder_DefaultsWhenUnpriced(t *testing.T) {
	b := NewBuilder(nil, nil)

	decl, warnings := b.Build(context.Background(), Request{
		Contents:      "3 x Paperback novel",
		Category:      shipment.CategoryBooks,
		WeightOz:      30,
		OriginCountry: "US",
		DestCountry:   "CA",
	})

	assert.Empty(t, warnings)
	require.Len(t, decl.Items, 1)
	assert.Equal(t, "Paperback novel", decl.Items[0].Description)
	assert.Equal(t, 3, decl.Items[0].Quantity)
	assert.True(t, decl.Items[0].Value.Equal(DefaultUnitValue))
	assert.Equal(t, 30.0, decl.Items[0].WeightOz)
	assert.Equal(t, DefaultSigner, decl.SignerName)
	assert.Equal(t, shipment.IncotermDDU, decl.Incoterm)
}

func TestBuilder_MultiByteDescriptions(t *testing.T) {
	b := NewBuilder(nil, nil)
	long := strings.Repeat("Crème brûlée ramekin ", 5)

	tests := []struct {
		name     string
		contents string
		want     string
	}{
		{name: "short CJK kept whole", contents: "日本の手作り陶器のマグカップとお皿のセットです", want: "日本の手作り陶器のマグカップとお皿のセットです"},
		{name: "long accented cut on a rune", contents: long, want: strings.TrimSpace(string([]rune(long)[:maxDescriptionLen]))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decl, _ := b.Build(context.Background(), Request{
				Contents:      tt.contents,
				Category:      shipment.CategoryHomeGoods,
				WeightOz:      16,
				OriginCountry: "US",
				DestCountry:   "JP",
			})

			require.Len(t, decl.Items, 1)
			desc := decl.Items[0].Description
			assert.True(t, utf8.ValidString(desc))
			assert.LessOrEqual(t, utf8.RuneCountInString(desc), maxDescriptionLen)
			assert.Equal(t, tt.want, desc)
		})
	}
}

func TestBuilder_BestEffortOnItemFailure(t *testing.T) {
	t.Run("empty contents", func(t *testing.T) {
		decl, warnings := NewBuilder(nil, nil).Build(context.Background(), Request{
			Category:      shipment.CategoryToys,
			WeightOz:      12,
			OriginCountry: "US",
			DestCountry:   "MX",
		})

		require.Len(t, warnings, 1)
		assert.Contains(t, warnings[0], FallbackDescription)
		require.Len(t, decl.Items, 1)
		assert.Equal(t, FallbackDescription, decl.Items[0].Description)
		assert.Equal(t, 1, decl.Items[0].Quantity)
		assert.Equal(t, 12.0, decl.Items[0].WeightOz)
		assert.Equal(t, "950300", decl.Items[0].HSCode)
		assert.Empty(t, shipment.CheckStruct(decl))
	})

	t.Run("tariff lookup fails", func(t *testing.T) {
		decl, warnings := NewBuilder(NewDescriptionItems(failingTariffs{}), nil).Build(context.Background(), Request{
			Contents:      "Lamp",
			WeightOz:      40,
			OriginCountry: "US",
			DestCountry:   "DE",
		})

		require.Len(t, warnings, 1)
		assert.Contains(t, warnings[0], "tariff service unavailable")
		assert.Equal(t, FallbackDescription, decl.Items[0].Description)
	})

	t.Run("item source error", func(t *testing.T) {
		src := new(mockItemSource)
		src.On("Items", mock.Anything, mock.Anything).Return(nil, errors.New("lookup timeout"))

		decl, warnings := NewBuilder(src, nil).Build(context.Background(), Request{Contents: "Widgets", WeightOz: 5, OriginCountry: "US"})

		require.Len(t, warnings, 1)
		assert.Len(t, decl.Items, 1)
		src.AssertExpectations(t)
	})

	t.Run("item source returns nothing", func(t *testing.T) {
		src := new(mockItemSource)
		src.On("Items", mock.Anything, mock.Anything).Return([]shipment.CustomsItem{}, nil)

		decl, warnings := NewBuilder(src, nil).Build(context.Background(), Request{Contents: "Widgets", WeightOz: 5})

		require.Len(t, warnings, 1)
		assert.Equal(t, FallbackDescription, decl.Items[0].Description)
	})
}

func TestParseContents(t *testing.T) {
	tests := []struct {
		contents string
		desc     string
		qty      int
		price    string
	}{
		{"T-shirt (3 x 12.50)", "T-shirt", 3, "12.50"},
		{"T-shirt (3 x $12.50)", "T-shirt", 3, "12.50"},
		{"Mug ($8 each)", "Mug", 1, "8"},
		{"2 x Candle", "Candle", 2, ""},
		{"Poster $15", "Poster", 1, "15"},
		{"Hand cream", "Hand cream", 1, ""},
	}
	for _, tt := range tests {
		t.Run(tt.contents, func(t *testing.T) {
			items := parseContents(tt.contents)
			require.Len(t, items, 1)
			assert.Equal(t, tt.desc, items[0].description)
			assert.Equal(t, tt.qty, items[0].quantity)
			if tt.price == "" {
				assert.False(t, items[0].priced)
			} else {
				assert.True(t, items[0].unitValue.Equal(decimal.RequireFromString(tt.price)))
			}
		})
	}

	assert.Len(t, parseContents("a; b;; c"), 3)
	assert.Empty(t, parseContents(" ; "))
}

func TestSignerDirectory(t *testing.T) {
	d := NewSignerDirectory(map[string]string{"  Globex  Inc ": "Hank Scorpio", "Empty": " "})
	assert.Equal(t, "Hank Scorpio", d.Signer("globex inc"))
	assert.Equal(t, DefaultSigner, d.Signer("Empty"))
	assert.Equal(t, DefaultSigner, d.Signer("Initech"))
	assert.Equal(t, 1, d.Len())

	var nilDir *SignerDirectory
	assert.Equal(t, DefaultSigner, nilDir.Signer("Globex Inc"))
}

func TestLoadSignerDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signers.yaml")
	require.NoError(t, os.WriteFile(path, []byte("signers:\n  Acme Corp: Jane Roe\n  Initech: Bill Lumbergh\n"), 0o600))

	d, err := LoadSignerDirectory(path)
	require.NoError(t, err)
	assert.Equal(t, 2, d.Len())
	assert.Equal(t, "Bill Lumbergh", d.Signer("INITECH"))

	_, err = LoadSignerDirectory(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
