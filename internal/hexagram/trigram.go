package hexagram

// 八卦名与三位二进制（自下而上为低位到高位）一一对应，两张表必须互逆。
var trigramBits = map[string]int{
	"乾": 0b111, "兑": 0b011, "离": 0b101, "震": 0b001,
	"巽": 0b110, "坎": 0b010, "艮": 0b100, "坤": 0b000,
}

var bitsTrigram = map[int]string{
	0b111: "乾", 0b011: "兑", 0b101: "离", 0b001: "震",
	0b110: "巽", 0b010: "坎", 0b100: "艮", 0b000: "坤",
}

// Trigram 八卦的附加信息：拼音与卦象。
type Trigram struct {
	Name   string `json:"name"`
	Pinyin string `json:"pinyin"`
	Image  string `json:"image"`
	Bits   int    `json:"bits"`
}

// 先天八卦序
var trigrams = []Trigram{
	{Name: "乾", Pinyin: "Qian", Image: "天", Bits: 0b111},
	{Name: "兑", Pinyin: "Dui", Image: "泽", Bits: 0b011},
	{Name: "离", Pinyin: "Li", Image: "火", Bits: 0b101},
	{Name: "震", Pinyin: "Zhen", Image: "雷", Bits: 0b001},
	{Name: "巽", Pinyin: "Xun", Image: "风", Bits: 0b110},
	{Name: "坎", Pinyin: "Kan", Image: "水", Bits: 0b010},
	{Name: "艮", Pinyin: "Gen", Image: "山", Bits: 0b100},
	{Name: "坤", Pinyin: "Kun", Image: "地", Bits: 0b000},
}

// Trigrams 返回八卦列表的副本。
func Trigrams() []Trigram {
	out := make([]Trigram, len(trigrams))
	copy(out, trigrams)
	return out
}

// LookupTrigram 按卦名查八卦信息。
func LookupTrigram(name string) (Trigram, bool) {
	for _, t := range trigrams {
		if t.Name == name {
			return t, true
		}
	}
	return Trigram{}, false
}

// IsTrigram 是否为八卦名之一。
func IsTrigram(name string) bool {
	_, ok := trigramBits[name]
	return ok
}

// Intn 随机源，*math/rand.Rand 满足。
type Intn interface {
	Intn(n int) int
}

// Random 随机抽取 count 个互不相同的卦；count 超过 64 时只返回 64 个。
func Random(rng Intn, count int) []Hexagram {
	total := int(Max) + 1
	if count > total {
		count = total
	}
	if count <= 0 {
		return nil
	}
	used := make(map[int]bool, count)
	out := make([]Hexagram, 0, count)
	for len(out) < count {
		i := rng.Intn(total)
		if used[i] {
			continue
		}
		used[i] = true
		out = append(out, Hexagram(i))
	}
	return out
}
