package document

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestElementJSONDefaults(t *testing.T) {
	var el Element
	err := json.Unmarshal([]byte(`{"id":"el_1","type":"rect","x":5,"y":6,"width":10,"height":20}`), &el)
	require.NoError(t, err)

	assert.Equal(t, 1.0, el.StrokeWidth)
	assert.Equal(t, 1.0, el.Opacity)
	require.IsType(t, &Rect{}, el.Shape)
	assert.Equal(t, &Rect{Width: 10, Height: 20}, el.Shape)
}

func TestElementJSONLine(t *testing.T) {
	src := NewElement("el_line", 10, 10, &Line{Points: [2]Point{{0, 0}, {30, 40}}})
	data, err := json.Marshal(src)
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"width"`)

	var got Element
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, ElementLine, got.Type())
	assert.Equal(t, src.Shape, got.Shape)
}

func TestElementJSONRejectsUnknownType(t *testing.T) {
	var el Element
	err := json.Unmarshal([]byte(`{"id":"el_1","type":"ellipse"}`), &el)
	assert.Error(t, err)

	err = json.Unmarshal([]byte(`{"id":"el_2","type":"line","points":[{"x":1,"y":1}]}`), &el)
	assert.Error(t, err)
}

func TestElementJSONKeepsComponentFlags(t *testing.T) {
	src := NewElement("el_f", 0, 0, &Frame{Width: 50, Height: 50, IsGroup: true})
	src.IsMaster = true
	src.ComponentName = "Card"
	src.LinkToFrameID = "el_other"

	data, err := json.Marshal(src)
	require.NoError(t, err)

	var got Element
	require.NoError(t, json.Unmarshal(data, &got))
	assert.True(t, got.IsMaster)
	assert.Equal(t, "Card", got.ComponentName)
	assert.Equal(t, "el_other", got.LinkToFrameID)
	assert.True(t, got.Shape.(*Frame).IsGroup)
}

func TestCloneIsDeep(t *testing.T) {
	scene := NewScene(
		NewElement("a", 0, 0, &Rect{Width: 10, Height: 10}),
		NewElement("b", 0, 0, &Line{Points: [2]Point{{0, 0}, {5, 5}}}),
	)
	scene.Elements[0].InstanceOverrides = map[string]json.RawMessage{"fill": json.RawMessage(`"#fff"`)}

	c := scene.Clone()
	c.Elements[0].X = 99
	c.Elements[0].Shape.(*Rect).Width = 99
	c.Elements[1].Shape.(*Line).Points[1].X = 99
	c.Elements[0].InstanceOverrides["fill"] = json.RawMessage(`"#000"`)

	assert.Equal(t, 0.0, scene.Elements[0].X)
	assert.Equal(t, 10.0, scene.Elements[0].Shape.(*Rect).Width)
	assert.Equal(t, 5.0, scene.Elements[1].Shape.(*Line).Points[1].X)
	assert.JSONEq(t, `"#fff"`, string(scene.Elements[0].InstanceOverrides["fill"]))
}

func TestSceneRemoveAndValidate(t *testing.T) {
	scene := NewScene(
		NewElement("a", 0, 0, &Rect{}),
		NewElement("b", 0, 0, &Rect{}),
		NewElement("c", 0, 0, &Rect{}),
	)
	original := scene.Clone()

	assert.True(t, scene.Remove("b"))
	assert.False(t, scene.Remove("b"))
	assert.Equal(t, []string{"a", "c"}, scene.IDs())
	assert.Equal(t, []string{"a", "b", "c"}, original.IDs())

	require.NoError(t, scene.Validate())
	scene.Append(NewElement("a", 1, 1, &Rect{}))
	assert.ErrorIs(t, scene.Validate(), ErrDuplicateID)
}

func TestSnapshotRoundTrip(t *testing.T) {
	scene := NewSampleScene("user_1")
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	snap := scene.Snapshot(7, at)
	data, err := json.Marshal(snap)
	require.NoError(t, err)

	var got Snapshot
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, int64(7), got.Version)
	assert.True(t, got.UpdatedAt.Equal(at))
	assert.Equal(t, scene.IDs(), got.Scene().IDs())
	require.NoError(t, got.Scene().Validate())
}
