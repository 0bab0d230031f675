package shipment

import (
	"strings"
	"unicode"
)

// Category is a product category derived from a contents description.
type Category string

const (
	CategoryApparel     Category = "apparel"
	CategoryFootwear    Category = "footwear"
	CategorySporting    Category = "sporting"
	CategoryElectronics Category = "electronics"
	CategoryBeauty      Category = "beauty"
	CategoryBedding     Category = "bedding"
	CategoryArt         Category = "art"
	CategoryBooks       Category = "books"
	CategoryToys        Category = "toys"
	CategoryJewelry     Category = "jewelry"
	CategoryFood        Category = "food"
	CategoryHomeGoods   Category = "home-goods"
	CategoryDefault     Category = "default"
)

// CategoryRule maps a category to the keywords that select it.
// Keywords containing a space are matched as phrases (substring); single
// words must match a whole word.
type CategoryRule struct {
	Category Category
	Keywords []string
}

// defaultRules is ordered by priority: the more specific categories come first.
var defaultRules = []CategoryRule{
	{CategoryApparel, []string{
		"yoga pants", "t-shirt", "t shirt", "tshirt", "shirt", "shirts", "blouse", "dress", "dresses",
		"jacket", "jackets", "coat", "coats", "hoodie", "hoodies", "sweater", "sweaters", "pants",
		"jeans", "skirt", "skirts", "shorts", "leggings", "clothing", "clothes", "apparel", "socks",
		"scarf", "scarves", "hat", "hats", "cap", "gloves", "garment", "garments", "tee", "tees",
	}},
	{CategoryFootwear, []string{
		"running shoes", "shoe", "shoes", "sneaker", "sneakers", "boot", "boots", "sandal", "sandals",
		"slipper", "slippers", "heels", "loafers", "footwear", "cleats",
	}},
	{CategorySporting, []string{
		"yoga mat", "resistance band", "dumbbell", "dumbbells", "kettlebell", "racket", "racquet",
		"golf", "tennis", "fitness", "gym", "sports", "sporting", "bicycle", "bike", "camping", "tent",
		"fishing", "exercise", "ball", "balls",
	}},
	{CategoryElectronics, []string{
		"phone case", "cell phone", "phone", "phones", "smartphone", "laptop", "tablet", "charger",
		"cable", "cables", "headphones", "earbuds", "speaker", "speakers", "camera", "electronics",
		"electronic", "computer", "keyboard", "mouse", "monitor", "battery", "batteries", "usb",
		"console", "gadget", "gadgets", "drone",
	}},
	{CategoryBeauty, []string{
		"skin care", "nail polish", "beauty", "cosmetic", "cosmetics", "makeup", "lipstick", "skincare",
		"serum", "lotion", "perfume", "fragrance", "shampoo", "conditioner", "moisturizer", "cream",
		"mascara", "eyeliner",
	}},
	{CategoryBedding, []string{
		"bed sheets", "bedding", "sheet", "sheets", "pillow", "pillows", "pillowcase", "duvet",
		"comforter", "blanket", "blankets", "quilt", "mattress",
	}},
	{CategoryArt, []string{
		"art print", "wall art", "art", "painting", "paintings", "print", "prints", "canvas", "poster",
		"posters", "sculpture", "artwork", "drawing", "lithograph",
	}},
	{CategoryBooks, []string{
		"book", "books", "novel", "novels", "magazine", "magazines", "textbook", "comic", "comics",
		"paperback", "hardcover", "manga",
	}},
	{CategoryToys, []string{
		"board game", "action figure", "stuffed animal", "toy", "toys", "game", "games", "puzzle",
		"puzzles", "doll", "dolls", "lego", "plush",
	}},
	{CategoryJewelry, []string{
		"jewelry", "jewellery", "necklace", "necklaces", "ring", "rings", "bracelet", "bracelets",
		"earring", "earrings", "pendant", "brooch", "watch", "watches",
	}},
	{CategoryFood, []string{
		"dried fruit", "hot sauce", "food", "snack", "snacks", "candy", "chocolate", "coffee", "tea",
		"spice", "spices", "sauce", "cookies", "honey", "jam", "nuts",
	}},
	{CategoryHomeGoods, []string{
		"home goods", "home decor", "mug", "mugs", "cup", "cups", "plate", "plates", "kitchen",
		"cookware", "candle", "candles", "vase", "decor", "towel", "towels", "lamp", "furniture",
		"utensils", "bowl", "bowls",
	}},
}

// Classifier maps contents descriptions to categories using an ordered rule table.
// A Classifier is immutable and safe for concurrent use.
type Classifier struct {
	rules []CategoryRule
}

// NewClassifier creates a Classifier over a copy of rules.
// Keywords are lower-cased; rule order is the match priority.
func NewClassifier(rules []CategoryRule) *Classifier {
	cp := make([]CategoryRule, 0, len(rules))
	for _, r := range rules {
		kws := make([]string, 0, len(r.Keywords))
		for _, k := range r.Keywords {
			if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
				kws = append(kws, k)
			}
		}
		cp = append(cp, CategoryRule{Category: r.Category, Keywords: kws})
	}
	return &Classifier{rules: cp}
}

// DefaultClassifier returns a Classifier with the built-in rule table.
func DefaultClassifier() *Classifier {
	return NewClassifier(defaultRules)
}

// Rules returns a copy of the rule table.
func (c *Classifier) Rules() []CategoryRule {
	out := make([]CategoryRule, len(c.rules))
	for i, r := range c.rules {
		out[i] = CategoryRule{Category: r.Category, Keywords: append([]string(nil), r.Keywords...)}
	}
	return out
}

// Classify returns the first category whose keywords match contents.
// A second pass accepts plain substrings when nothing matched on word
// boundaries. The result is never empty.
func (c *Classifier) Classify(contents string) Category {
	text := strings.Join(strings.Fields(strings.ToLower(contents)), " ")
	if text == "" {
		return CategoryDefault
	}
	if cat, ok := c.matchWords(text); ok {
		return cat
	}
	for _, r := range c.rules {
		for _, k := range r.Keywords {
			if strings.Contains(text, k) {
				return r.Category
			}
		}
	}
	return CategoryDefault
}

// HasKeyword reports whether any rule keyword appears in s as a whole word or phrase.
func (c *Classifier) HasKeyword(s string) bool {
	_, ok := c.matchWords(strings.Join(strings.Fields(strings.ToLower(s)), " "))
	return ok
}

func (c *Classifier) matchWords(text string) (Category, bool) {
	if text == "" {
		return CategoryDefault, false
	}
	words := wordSet(text)
	for _, r := range c.rules {
		for _, k := range r.Keywords {
			if strings.Contains(k, " ") {
				if strings.Contains(text, k) {
					return r.Category, true
				}
				continue
			}
			if _, ok := words[k]; ok {
				return r.Category, true
			}
		}
	}
	return CategoryDefault, false
}

// wordSet splits text into words. Hyphenated words are kept whole and also
// split into their parts.
func wordSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	})
	for _, f := range fields {
		f = strings.Trim(f, "-")
		if f == "" {
			continue
		}
		set[f] = struct{}{}
		if strings.Contains(f, "-") {
			for _, p := range strings.Split(f, "-") {
				if p != "" {
					set[p] = struct{}{}
				}
			}
		}
	}
	return set
}
