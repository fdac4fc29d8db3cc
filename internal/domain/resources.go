package domain

const schemaVersion = "2022-07-22T00:00:00.000Z"

// Build is the current game build
type Build struct {
	ID uint32 `json:"id"`
}

func (Build) Endpoint() EndpointInfo {
	return EndpointInfo{
		Path:    "v2/build",
		Version: schemaVersion,
	}
}

// Account is the account owning the API key
type Account struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Age     uint64   `json:"age"`
	World   uint32   `json:"world"`
	Guilds  []string `json:"guilds"`
	Access  []string `json:"access"`
	Created string   `json:"created"`
}

func (Account) Endpoint() EndpointInfo {
	return EndpointInfo{
		Path:          "v2/account",
		Version:       schemaVersion,
		Authenticated: true,
	}
}

type StatsID uint32

type ItemStatsAttribute struct {
	Attribute  string  `json:"attribute"`
	Multiplier float32 `json:"multiplier"`
	Value      uint16  `json:"value"`
}

type ItemStats struct {
	ID         StatsID              `json:"id"`
	Name       string               `json:"name"`
	Attributes []ItemStatsAttribute `json:"attributes"`
}

func (ItemStats) Endpoint() EndpointInfo {
	return EndpointInfo{
		Path:        "v2/itemstats",
		Version:     schemaVersion,
		Localized:   true,
		SupportsAll: true,
		Paged:       true,
	}
}

func (s ItemStats) ResourceID() StatsID {
	return s.ID
}

type SpecializationID uint16
type TraitID uint32

type Specialization struct {
	ID          SpecializationID `json:"id"`
	Name        string           `json:"name"`
	Profession  ProfessionID     `json:"profession"`
	Elite       bool             `json:"elite"`
	Icon        string           `json:"icon"`
	Background  string           `json:"background"`
	MinorTraits []TraitID        `json:"minor_traits"`
	MajorTraits []TraitID        `json:"major_traits"`
}

func (Specialization) Endpoint() EndpointInfo {
	return EndpointInfo{
		Path:        "v2/specializations",
		Version:     schemaVersion,
		Localized:   true,
		SupportsAll: true,
		Paged:       true,
	}
}

func (s Specialization) ResourceID() SpecializationID {
	return s.ID
}

// ProfessionID is the profession name, e.g. "Guardian"
type ProfessionID string

type Profession struct {
	ID              ProfessionID       `json:"id"`
	Name            string             `json:"name"`
	Code            *uint32            `json:"code,omitempty"`
	Icon            string             `json:"icon"`
	IconBig         string             `json:"icon_big"`
	Specializations []SpecializationID `json:"specializations"`
	Flags           []string           `json:"flags"`
}

func (Profession) Endpoint() EndpointInfo {
	return EndpointInfo{
		Path:        "v2/professions",
		Version:     schemaVersion,
		Localized:   true,
		SupportsAll: true,
	}
}

func (p Profession) ResourceID() ProfessionID {
	return p.ID
}

type SkillID uint32

type Skill struct {
	ID          SkillID        `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Icon        *string        `json:"icon,omitempty"`
	ChatLink    string         `json:"chat_link"`
	Type        *string        `json:"type,omitempty"`
	WeaponType  *string        `json:"weapon_type,omitempty"`
	Professions []ProfessionID `json:"professions,omitempty"`
	Slot        *string        `json:"slot,omitempty"`
	FlipSkill   *SkillID       `json:"flip_skill,omitempty"`
	NextChain   *SkillID       `json:"next_chain,omitempty"`
	PrevChain   *SkillID       `json:"prev_chain,omitempty"`
}

func (Skill) Endpoint() EndpointInfo {
	return EndpointInfo{
		Path:        "v2/skills",
		Version:     schemaVersion,
		Localized:   true,
		SupportsAll: true,
		Paged:       true,
	}
}

func (s Skill) ResourceID() SkillID {
	return s.ID
}

type ItemID uint32

// Item does not support ids=all, fetching all items goes through the id listing
type Item struct {
	ID          ItemID   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Type        string   `json:"type"`
	Level       uint8    `json:"level"`
	Rarity      string   `json:"rarity"`
	VendorValue uint64   `json:"vendor_value"`
	ChatLink    string   `json:"chat_link"`
	Icon        string   `json:"icon,omitempty"`
	Flags       []string `json:"flags"`
}

func (Item) Endpoint() EndpointInfo {
	return EndpointInfo{
		Path:      "v2/items",
		Version:   schemaVersion,
		Localized: true,
		Paged:     true,
	}
}

func (i Item) ResourceID() ItemID {
	return i.ID
}
