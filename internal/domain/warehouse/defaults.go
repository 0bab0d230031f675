package warehouse

import "github.com/erp/bulkship/internal/domain/shipment"

// DefaultRegionName is the fallback region of the built-in directory.
const DefaultRegionName = "California"

func site(desc, company, street, city, state, zip, country, phone string) Site {
	return Site{
		Description: desc,
		Address: shipment.Address{
			Name:    "Fulfillment Team",
			Company: company,
			Street1: street,
			City:    city,
			State:   state,
			Zip:     zip,
			Country: country,
			Phone:   phone,
		},
	}
}

func builtinRegions() []Region {
	return []Region{
		{
			Name:    "California",
			Aliases: []string{"CA", "LA", "Los Angeles", "SoCal", "West", "West Coast"},
			Sites: map[string]Site{
				DefaultKey:                            site("Los Angeles general fulfillment", "Pacific Fulfillment", "1200 E Olympic Blvd", "Los Angeles", "CA", "90021", "US", "213-555-0140"),
				string(shipment.CategoryApparel):      site("Los Angeles apparel hub", "Pacific Fulfillment Apparel", "2150 S Alameda St", "Los Angeles", "CA", "90058", "US", "213-555-0141"),
				string(shipment.CategoryBeauty):       site("Irvine beauty and cosmetics", "Pacific Fulfillment Beauty", "17 Hammond", "Irvine", "CA", "92618", "US", "949-555-0142"),
				string(shipment.CategoryElectronics):  site("San Jose electronics", "Pacific Fulfillment Tech", "2040 Fortune Dr", "San Jose", "CA", "95131", "US", "408-555-0143"),
				string(shipment.CategoryFootwear):     site("Los Angeles apparel hub", "Pacific Fulfillment Apparel", "2150 S Alameda St", "Los Angeles", "CA", "90058", "US", "213-555-0141"),
				string(shipment.CategorySporting):     site("Ontario sporting goods", "Pacific Fulfillment Outdoor", "4100 E Mission Blvd", "Ontario", "CA", "91761", "US", "909-555-0144"),
			},
		},
		{
			Name:    "New York",
			Aliases: []string{"NY", "NYC", "East", "East Coast"},
			Sites: map[string]Site{
				DefaultKey:                         site("Brooklyn general fulfillment", "Atlantic Fulfillment", "141 Flushing Ave", "Brooklyn", "NY", "11205", "US", "718-555-0150"),
				string(shipment.CategoryBooks):     site("Long Island City media", "Atlantic Fulfillment Media", "47-10 33rd St", "Long Island City", "NY", "11101", "US", "718-555-0151"),
				string(shipment.CategoryArt):       site("Long Island City media", "Atlantic Fulfillment Media", "47-10 33rd St", "Long Island City", "NY", "11101", "US", "718-555-0151"),
				string(shipment.CategoryJewelry):   site("Manhattan secure vault", "Atlantic Fulfillment Secure", "580 5th Ave", "New York", "NY", "10036", "US", "212-555-0152"),
				string(shipment.CategoryHomeGoods): site("Secaucus home goods", "Atlantic Fulfillment Home", "500 Meadowlands Pkwy", "Secaucus", "NJ", "07094", "US", "201-555-0153"),
			},
		},
		{
			Name:    "Texas",
			Aliases: []string{"TX", "Dallas", "South"},
			Sites: map[string]Site{
				DefaultKey:                       site("Dallas general fulfillment", "Lone Star Fulfillment", "3000 Pegasus Park Dr", "Dallas", "TX", "75247", "US", "214-555-0160"),
				string(shipment.CategoryFood):    site("Dallas temperature controlled", "Lone Star Fresh", "2200 Cold Storage Ln", "Dallas", "TX", "75212", "US", "214-555-0161"),
				string(shipment.CategoryBedding): site("Fort Worth bulky goods", "Lone Star Home", "4500 Alliance Gateway Fwy", "Fort Worth", "TX", "76177", "US", "817-555-0162"),
			},
		},
		{
			Name:    "Illinois",
			Aliases: []string{"IL", "Chicago", "Midwest"},
			Sites: map[string]Site{
				DefaultKey:                    site("Chicago general fulfillment", "Lakeside Fulfillment", "2400 S Ashland Ave", "Chicago", "IL", "60608", "US", "312-555-0170"),
				string(shipment.CategoryToys): site("Joliet toys and games", "Lakeside Fulfillment Toys", "1500 Channahon Rd", "Joliet", "IL", "60436", "US", "815-555-0171"),
			},
		},
		{
			Name:    "United Kingdom",
			Aliases: []string{"UK", "GB", "London", "Europe", "EU"},
			Sites: map[string]Site{
				DefaultKey: site("London cross-border fulfillment", "Thames Fulfillment Ltd", "Unit 4, Heathrow Logistics Park", "Hounslow", "", "TW4 6JS", "GB", "+44 20 7946 0180"),
			},
		},
	}
}

// DefaultDirectory returns the built-in warehouse directory.
func DefaultDirectory() *Directory {
	d, err := NewDirectory(DefaultRegionName, builtinRegions())
	if err != nil {
		panic("warehouse: built-in directory is invalid: " + err.Error())
	}
	return d
}
