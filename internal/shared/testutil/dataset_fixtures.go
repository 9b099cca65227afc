package testutil

// Default locators of the six source resources
const (
	GDPLocator       = "gdp.csv"
	IneqCombLocator  = "inequality.csv"
	IneqEduLocator   = "inequality_education.csv"
	IneqIncLocator   = "inequality_income.csv"
	IneqLifeLocator  = "inequality_life_expectancy.csv"
	MetadataLocator  = "countries-unescaped.json"
	emptyTableHeader = "Country;2010;2011;2012;2013;2014;2015;2016;2017\n"
)

// TestlandSources is the smallest complete dataset: one country with a GDP
// value for 2017 and nothing else
func TestlandSources() map[string]string {
	return map[string]string{
		GDPLocator:      "Country;2017\nTestland;1000\n",
		IneqCombLocator: emptyTableHeader,
		IneqEduLocator:  emptyTableHeader,
		IneqIncLocator:  emptyTableHeader,
		IneqLifeLocator: emptyTableHeader,
		MetadataLocator: `[
  {
    "cca3": "TST",
    "name": {"common": "Testland", "official": "Republic of Testland", "native": {}},
    "altSpellings": [],
    "region": "Europe"
  }
]`,
	}
}

// WorldSources is a five country dataset exercising overrides, native and
// accented names, missing rows and unparseable cells.
//
//	Germany         GDP every year, all inequality tables
//	France          GDP every year, combined and income only
//	Côte d'Ivoire   GDP 2010-2016, "n/a" for 2017, combined with a % suffix
//	Congo           resolves to COD through the overrides
//	Congo (Democratic Republic of the)  resolves to COG through the overrides
func WorldSources() map[string]string {
	return map[string]string{
		GDPLocator: "\ufeffCountry;2010;2011;2012;2013;2014;2015;2016;2017\n" +
			"Germany;41000;42000;43000;44000;45000;46000;47000;48000\n" +
			"France;38000;38500;39000;39500;40000;40500;41000;41500\n" +
			"Côte d'Ivoire;3000;3100;3200;3300;3400;3500;3600;n/a\n" +
			"Congo;700;710;720;730;740;750;760;770\n" +
			"Congo (Democratic Republic of the);400;410;420;430;440;450;460;470\n",
		IneqCombLocator: "Country;2010;2017\n" +
			"Germany;0.10;0.08\n" +
			"France;0.12;0.11\n" +
			"Côte d'Ivoire;0.45%;0.40\n" +
			"Congo;0.50;\n",
		IneqEduLocator: "Country;2010;2017\n" +
			"Germany;0.05;0.04\n",
		IneqIncLocator: "Country;2010;2017\n" +
			"Germany;0.20;0.18\n" +
			"France;0.22;0.21\n",
		IneqLifeLocator: "Country;2010;2017\n" +
			"Germany;0.03;0.02\n",
		MetadataLocator: `[
  {
    "cca3": "DEU",
    "name": {
      "common": "Germany",
      "official": "Federal Republic of Germany",
      "native": {"deu": {"common": "Deutschland", "official": "Bundesrepublik Deutschland"}}
    },
    "altSpellings": ["DE"],
    "region": "Europe"
  },
  {
    "cca3": "FRA",
    "name": {
      "common": "France",
      "official": "French Republic",
      "native": {"fra": {"common": "France", "official": "République française"}}
    },
    "altSpellings": ["FR"],
    "region": "Europe"
  },
  {
    "cca3": "CIV",
    "name": {"common": "Ivory Coast", "official": "Republic of Côte d'Ivoire"},
    "altSpellings": ["CI", "Côte d'Ivoire"],
    "region": "Africa"
  },
  {
    "cca3": "COD",
    "name": {"common": "DR Congo", "official": "Democratic Republic of the Congo"},
    "altSpellings": ["CD"],
    "region": "Africa"
  },
  {
    "cca3": "COG",
    "name": {"common": "Republic of the Congo", "official": "Republic of the Congo"},
    "altSpellings": ["CG"],
    "region": "Africa"
  }
]`,
	}
}
