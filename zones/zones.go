// ABOUTME: Service-zone classification from city and zip code
// ABOUTME: Applies an injected zone policy with a fixed precedence order
package zones

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Zone names.
const (
	ChittendenCore     = "Chittenden Core"
	ChittendenExtended = "Chittenden Extended"
	Other              = "Other"
)

// Policy is the lookup data behind classification.
type Policy struct {
	CoreZips       []string          `yaml:"core_zips"`
	CoreCities     []string          `yaml:"core_cities"`
	ExtendedCities []string          `yaml:"extended_cities"`
	Counties       map[string]string `yaml:"counties"`
}

// DefaultPolicy returns the Vermont service-area tables.
func DefaultPolicy() Policy {
	return Policy{
		CoreZips: []string{
			"05401", "05402", "05403", "05404", "05405", "05408",
			"05446", "05451", "05452", "05482", "05495",
		},
		CoreCities: []string{
			"Burlington", "South Burlington", "Winooski", "Essex Junction",
			"Colchester", "Williston", "Shelburne", "Essex",
		},
		ExtendedCities: []string{
			"Milton", "Jericho", "Underhill", "Richmond", "Hinesburg",
			"St George", "Charlotte", "Huntington", "Bolton",
		},
		Counties: map[string]string{
			"Montpelier":     "Washington County",
			"Barre":          "Washington County",
			"Waterbury":      "Washington County",
			"Middlebury":     "Addison County",
			"Bristol":        "Addison County",
			"Lincoln":        "Addison County",
			"Starksboro":     "Addison County",
			"Hyde Park":      "Lamoille County",
			"Stowe":          "Lamoille County",
			"Morrisville":    "Lamoille County",
			"St Albans":      "Franklin County",
			"St Albans City": "Franklin County",
			"Swanton":        "Franklin County",
		},
	}
}

// LoadPolicy reads a YAML policy file.
func LoadPolicy(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("failed to read zone policy: %w", err)
	}

	var policy Policy
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return Policy{}, fmt.Errorf("failed to parse zone policy: %w", err)
	}

	return policy, nil
}

// Classifier maps a city/zip pair to a zone. Safe for concurrent use.
type Classifier struct {
	coreZips       map[string]struct{}
	coreCities     map[string]struct{}
	extendedCities map[string]struct{}
	counties       map[string]string
	zones          []string
}

// NewClassifier copies policy into lookup sets.
func NewClassifier(policy Policy) *Classifier {
	c := &Classifier{
		coreZips:       toSet(policy.CoreZips),
		coreCities:     toSet(policy.CoreCities),
		extendedCities: toSet(policy.ExtendedCities),
		counties:       make(map[string]string, len(policy.Counties)),
	}

	countyZones := make(map[string]struct{})
	for city, zone := range policy.Counties {
		c.counties[city] = zone
		countyZones[zone] = struct{}{}
	}
	delete(countyZones, ChittendenCore)
	delete(countyZones, ChittendenExtended)
	delete(countyZones, Other)

	named := make([]string, 0, len(countyZones))
	for zone := range countyZones {
		named = append(named, zone)
	}
	sort.Strings(named)

	c.zones = append([]string{ChittendenCore, ChittendenExtended}, named...)
	c.zones = append(c.zones, Other)

	return c
}

// Classify returns the zone for city and zip. First match wins:
// empty city, core zip, core city, extended city, county table, Other.
// City comparison is exact after trimming surrounding whitespace.
func (c *Classifier) Classify(city, zip string) string {
	if city == "" {
		return Other
	}

	if zip != "" {
		if _, ok := c.coreZips[zip]; ok {
			return ChittendenCore
		}
	}

	city = strings.TrimSpace(city)

	if _, ok := c.coreCities[city]; ok {
		return ChittendenCore
	}
	if _, ok := c.extendedCities[city]; ok {
		return ChittendenExtended
	}
	if zone, ok := c.counties[city]; ok {
		return zone
	}

	return Other
}

// Zones returns the closed set of zone names this classifier can produce.
func (c *Classifier) Zones() []string {
	return append([]string(nil), c.zones...)
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
