package entity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func newLaptopInspection(t *testing.T) *Inspection {
	t.Helper()
	insp, err := NewInspection(1, "Dell XPS 13", CategoryLaptop, 2)
	require.NoError(t, err)
	return insp
}

func TestNewInspection_RejectsUnknownCategory(t *testing.T) {
	_, err := NewInspection(1, "x", ProductCategory("Tablet"), 1)
	require.True(t, errors.Is(err, ErrUnknownCategory))
}

func TestInspection_SetViewRejectsForeignView(t *testing.T) {
	insp := newLaptopInspection(t)
	err := insp.SetView(UploadedView{Name: "Camera close-up", Data: []byte("x")})
	require.ErrorIs(t, err, ErrUnknownView)
}

func TestInspection_ViewsInCanonicalOrder(t *testing.T) {
	insp := newLaptopInspection(t)
	require.NoError(t, insp.SetView(UploadedView{Name: "Bottom panel", Data: []byte("b")}))
	require.NoError(t, insp.SetView(UploadedView{Name: "Screen on (front, open)", Data: []byte("a")}))

	views := insp.Views()
	require.Len(t, views, 2)
	require.Equal(t, "Screen on (front, open)", views[0].Name)
	require.Equal(t, "Bottom panel", views[1].Name)
}

func TestInspection_ReuploadClearsResultAndFindings(t *testing.T) {
	insp := newLaptopInspection(t)
	view := "Keyboard & trackpad"
	require.NoError(t, insp.SetView(UploadedView{Name: view, Data: []byte("1")}))
	require.NoError(t, insp.SetResult(PassedView(view, nil)))
	require.NoError(t, insp.SetFindings(view, DamageReport{Issues: []DamageFinding{{Type: "dents"}}}))

	require.NoError(t, insp.SetView(UploadedView{Name: view, Data: []byte("2")}))
	_, ok := insp.Result(view)
	require.False(t, ok)
	require.Empty(t, insp.AllFindings())
}

func TestInspection_NextMissingView(t *testing.T) {
	insp := newLaptopInspection(t)
	views := CategoryLaptop.Views()

	next, ok := insp.NextMissingView()
	require.True(t, ok)
	require.Equal(t, views[0], next)

	for _, v := range views {
		require.NoError(t, insp.SetView(UploadedView{Name: v, Data: []byte(v)}))
		require.NoError(t, insp.SetResult(PassedView(v, nil)))
	}
	require.True(t, insp.AllViewsPassed())

	require.NoError(t, insp.SetResult(FailedView(views[3], nil, "blurry")))
	next, ok = insp.NextMissingView()
	require.True(t, ok)
	require.Equal(t, views[3], next)
}

func TestInspection_AllFindingsAndScore(t *testing.T) {
	insp := newLaptopInspection(t)
	views := CategoryLaptop.Views()
	require.NoError(t, insp.SetFindings(views[2], DamageReport{Issues: []DamageFinding{{Type: "dents"}}}))
	require.NoError(t, insp.SetFindings(views[0], DamageReport{Issues: []DamageFinding{{Type: "scratches"}, {Type: "cracks"}}}))

	all := insp.AllFindings()
	require.Len(t, all, 3)
	require.Equal(t, "scratches", all[0].Type)
	require.Equal(t, "dents", all[2].Type)
	require.Equal(t, 70, insp.ConditionScore())
	require.False(t, insp.Analyzed())
}

func TestInspection_BrandModel(t *testing.T) {
	insp, err := NewInspection(1, "  Apple  iPhone 13 Pro ", CategoryMobile, 0)
	require.NoError(t, err)
	brand, model := insp.BrandModel()
	require.Equal(t, "Apple", brand)
	require.Equal(t, "iPhone 13 Pro", model)
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory("laptop")
	require.NoError(t, err)
	require.Equal(t, CategoryLaptop, c)

	c, err = ParseCategory("Mobile")
	require.NoError(t, err)
	require.Equal(t, CategoryMobile, c)

	_, err = ParseCategory("tablet")
	require.ErrorIs(t, err, ErrUnknownCategory)
}
