package hexagram

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yijing/internal/model"
)

func TestTrigramTablesAreInverse(t *testing.T) {
	require.Len(t, trigramBits, 8)
	require.Len(t, bitsTrigram, 8)
	for name, bits := range trigramBits {
		assert.Equal(t, name, bitsTrigram[bits])
	}
	for bits, name := range bitsTrigram {
		assert.Equal(t, bits, trigramBits[name])
	}
	for _, tg := range Trigrams() {
		assert.Equal(t, trigramBits[tg.Name], tg.Bits, tg.Name)
	}
}

func TestFromTrigramsQianOverKun(t *testing.T) {
	h, err := FromTrigrams("乾", "坤")
	require.NoError(t, err)
	assert.Equal(t, Hexagram(0b111000), h)
	assert.Equal(t, Hexagram(56), h)

	p, ok := ToTrigrams(56)
	require.True(t, ok)
	assert.Equal(t, Pair{Upper: "乾", Lower: "坤"}, p)
	assert.Equal(t, "乾坤", Name(56))
}

func TestTrigramRoundTrip(t *testing.T) {
	for upper := range trigramBits {
		for lower := range trigramBits {
			h, err := FromTrigrams(upper, lower)
			require.NoError(t, err)
			p, ok := ToTrigrams(h)
			require.True(t, ok)
			assert.Equal(t, Pair{Upper: upper, Lower: lower}, p)
		}
	}
}

func TestHexagramRoundTrip(t *testing.T) {
	for h := Min; h <= Max; h++ {
		p, ok := ToTrigrams(h)
		require.True(t, ok, "hexagram %d", h)
		back, err := FromTrigrams(p.Upper, p.Lower)
		require.NoError(t, err)
		assert.Equal(t, h, back)
	}
}

func TestFromTrigramsUnknown(t *testing.T) {
	h, err := FromTrigrams("天", "坤")
	assert.ErrorIs(t, err, ErrUnknownTrigram)
	assert.Equal(t, Hexagram(0), h)

	_, err = FromTrigrams("乾", "")
	assert.ErrorIs(t, err, ErrUnknownTrigram)
}

func TestToTrigramsOutOfRange(t *testing.T) {
	for _, h := range []Hexagram{-1, 64, 1000} {
		_, ok := ToTrigrams(h)
		assert.False(t, ok, "hexagram %d", h)
		assert.False(t, Validate(h))
		assert.Equal(t, "未知", Name(h))
	}
}

func TestToggleLine(t *testing.T) {
	h, err := ToggleLine(0, 1)
	require.NoError(t, err)
	assert.Equal(t, Hexagram(1), h)

	h, err = ToggleLine(0b111111, 6)
	require.NoError(t, err)
	assert.Equal(t, Hexagram(0b011111), h)
}

func TestToggleLineIsInvolution(t *testing.T) {
	for h := Min; h <= Max; h++ {
		for line := 1; line <= LineCount; line++ {
			once, err := ToggleLine(h, line)
			require.NoError(t, err)
			assert.NotEqual(t, h, once)
			twice, err := ToggleLine(once, line)
			require.NoError(t, err)
			assert.Equal(t, h, twice)
		}
	}
}

func TestToggleLineInvalidReturnsInput(t *testing.T) {
	h, err := ToggleLine(5, 0)
	assert.ErrorIs(t, err, ErrInvalidChangingLine)
	assert.Equal(t, Hexagram(5), h)

	h, err = ToggleLine(5, 7)
	assert.ErrorIs(t, err, ErrInvalidChangingLine)
	assert.Equal(t, Hexagram(5), h)

	h, err = ToggleLine(64, 1)
	assert.ErrorIs(t, err, ErrInvalidHexagram)
	assert.Equal(t, Hexagram(64), h)
}

func TestFromSixLinesBottomFirst(t *testing.T) {
	lines := []model.LineValue{model.OldYang, model.YoungYin, model.YoungYin, model.YoungYin, model.YoungYin, model.OldYin}
	h, err := FromSixLines(lines)
	require.NoError(t, err)
	assert.Equal(t, Hexagram(1), h)
	p, _ := ToTrigrams(h)
	assert.Equal(t, Pair{Upper: "坤", Lower: "震"}, p)

	all := []model.LineValue{7, 9, 7, 9, 7, 9}
	h, err = FromSixLines(all)
	require.NoError(t, err)
	assert.Equal(t, Max, h)

	_, err = FromSixLines(all[:5])
	assert.ErrorIs(t, err, ErrLineCount)
}

func TestChangedByMoving(t *testing.T) {
	lines := []model.LineValue{model.OldYang, model.YoungYang, model.OldYin, model.YoungYin, model.YoungYin, model.YoungYang}
	h, err := FromSixLines(lines)
	require.NoError(t, err)
	assert.Equal(t, Hexagram(0b100011), h)

	changed, err := ChangedByMoving(h, lines)
	require.NoError(t, err)
	assert.Equal(t, Hexagram(0b100110), changed)
	assert.Equal(t, []int{1, 3}, MovingLines(lines))

	still := []model.LineValue{7, 8, 7, 8, 7, 8}
	h, _ = FromSixLines(still)
	changed, err = ChangedByMoving(h, still)
	require.NoError(t, err)
	assert.Equal(t, h, changed)
	assert.Empty(t, MovingLines(still))
}

func TestLineName(t *testing.T) {
	assert.Equal(t, "老阴", LineName(6))
	assert.Equal(t, "少阳", LineName(7))
	assert.Equal(t, "少阴", LineName(8))
	assert.Equal(t, "老阳", LineName(9))
	assert.Equal(t, "错误", LineName(0))
	assert.Equal(t, "错误", LineName(10))
}

func TestBit(t *testing.T) {
	h := Hexagram(0b000101)
	assert.True(t, h.Bit(1))
	assert.False(t, h.Bit(2))
	assert.True(t, h.Bit(3))
	assert.False(t, h.Bit(0))
	assert.False(t, h.Bit(7))
	assert.Equal(t, "000101", h.String())
}

func TestRandomDistinct(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	got := Random(rng, 4)
	require.Len(t, got, 4)
	seen := map[Hexagram]bool{}
	for _, h := range got {
		assert.True(t, h.Valid())
		assert.False(t, seen[h])
		seen[h] = true
	}
	assert.Len(t, Random(rng, 100), 64)
	assert.Nil(t, Random(rng, 0))
}

func TestLookupTrigram(t *testing.T) {
	tg, ok := LookupTrigram("坎")
	require.True(t, ok)
	assert.Equal(t, "Kan", tg.Pinyin)
	assert.Equal(t, "水", tg.Image)
	assert.True(t, IsTrigram("坎"))
	_, ok = LookupTrigram("水")
	assert.False(t, ok)
}
