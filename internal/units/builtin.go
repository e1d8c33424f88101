package units

import "github.com/vk/recipegrid/internal/number"

func dec(s string) number.Number {
	n, err := number.FromDecimal(s)
	if err != nil {
		panic(err)
	}
	return n
}

// Builtin returns a registry populated with the stock units.
func Builtin() *Registry {
	r := NewRegistry()

	add := func(dimension string, u Unit) {
		if err := r.Add(dimension, u); err != nil {
			panic(err)
		}
	}

	// Mass.
	add("mass", Unit{Names: []string{"g", "gram", "grams"}})
	add("mass", Unit{
		Names:      []string{"kg", "kilo", "kilos", "kilogram", "kilograms"},
		Definition: &Definition{Value: number.FromInt(1000), Unit: "g"},
	})
	add("mass", Unit{
		Names:      []string{"lb", "lbs", "pound", "pounds"},
		Definition: &Definition{Value: dec("453.59237"), Unit: "g"},
	})
	add("mass", Unit{
		Names:      []string{"oz", "ozs", "ounce", "ounces"},
		Definition: &Definition{Value: number.FromFraction(1, 16), Unit: "lb"},
	})

	// Volume.
	add("volume", Unit{Names: []string{"l", "litre", "litres"}})
	add("volume", Unit{
		Names:      []string{"ml", "mill", "mills", "milliliter", "milliliters"},
		Definition: &Definition{Value: number.FromFraction(1, 1000), Unit: "l"},
	})
	add("volume", Unit{
		Names:      []string{"tsp", "tsps", "teaspoon", "teaspoons", "tea spoon", "tea spoons"},
		Definition: &Definition{Value: number.FromFraction(5, 1000), Unit: "l"},
	})
	add("volume", Unit{
		Names:      []string{"tbsp", "tbsps", "tablespoon", "tablespoons", "table spoon", "table spoons"},
		Definition: &Definition{Value: number.FromFraction(15, 1000), Unit: "l"},
	})
	add("volume", Unit{
		Names:      []string{"cup", "cups"},
		Definition: &Definition{Value: dec("236.58824"), Unit: "ml"},
	})
	add("volume", Unit{
		Names:      []string{"pint", "pints"},
		Definition: &Definition{Value: dec("568.261"), Unit: "ml"},
	})
	add("volume", Unit{
		Names:      []string{"can", "cans"},
		Definition: &Definition{Value: number.FromInt(400), Unit: "ml"},
	})

	// Garlic, obviously.
	add("garlic", Unit{Names: []string{"clove", "cloves"}})
	add("garlic", Unit{
		Names:      []string{"bulb", "bulbs"},
		Definition: &Definition{Value: number.FromInt(10), Unit: "cloves"},
	})

	return r
}
