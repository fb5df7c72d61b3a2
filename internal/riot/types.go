package riot

// Account is a Riot account resolved from a game name and tag line.
type Account struct {
	PUUID    string `json:"puuid"`
	GameName string `json:"gameName"`
	TagLine  string `json:"tagLine"`
}

// Summoner is the TFT summoner record on the platform cluster.
type Summoner struct {
	ID            string `json:"id"`
	PUUID         string `json:"puuid"`
	ProfileIconID int    `json:"profileIconId"`
	SummonerLevel int    `json:"summonerLevel"`
}

// LeagueEntry is one ranked queue standing for a summoner.
type LeagueEntry struct {
	QueueType    string `json:"queueType"`
	Tier         string `json:"tier"`
	Rank         string `json:"rank"`
	LeaguePoints int    `json:"leaguePoints"`
	Wins         int    `json:"wins"`
	Losses       int    `json:"losses"`
}

// RankedTFTQueue is the queue type of standard ranked TFT league entries.
const RankedTFTQueue = "RANKED_TFT"

// Match is a full TFT match detail document.
type Match struct {
	Metadata MatchMetadata `json:"metadata"`
	Info     MatchInfo     `json:"info"`
}

// MatchMetadata carries match identity.
type MatchMetadata struct {
	MatchID      string   `json:"match_id"`
	Participants []string `json:"participants"`
}

// MatchInfo carries gameplay data for every participant.
type MatchInfo struct {
	GameDatetime int64         `json:"game_datetime"`
	GameLength   float64       `json:"game_length"`
	QueueID      int           `json:"queue_id"`
	Participants []Participant `json:"participants"`
}

// Participant is one player's final board and placement.
type Participant struct {
	PUUID     string   `json:"puuid"`
	Placement int      `json:"placement"`
	Level     int      `json:"level"`
	Units     []Unit   `json:"units"`
	Traits    []Trait  `json:"traits"`
	Augments  []string `json:"augments"`
}

// Unit is a fielded champion. Rarity is zero-based; display cost is Rarity+1.
type Unit struct {
	CharacterID string   `json:"character_id"`
	Rarity      int      `json:"rarity"`
	Tier        int      `json:"tier"`
	ItemNames   []string `json:"itemNames"`
}

// Cost returns the champion's shop cost.
func (u Unit) Cost() int {
	return u.Rarity + 1
}

// Trait is an origin or class with its activation tier.
type Trait struct {
	Name        string `json:"name"`
	NumUnits    int    `json:"num_units"`
	TierCurrent int    `json:"tier_current"`
}

// ParticipantByPUUID returns the participant entry for a player, if present.
func (m *Match) ParticipantByPUUID(puuid string) (*Participant, bool) {
	for i := range m.Info.Participants {
		if m.Info.Participants[i].PUUID == puuid {
			return &m.Info.Participants[i], true
		}
	}
	return nil, false
}
