package geometry

import (
	"math"
	"testing"
)

func TestResolve(t *testing.T) {
	cases := []struct {
		name       string
		orig       Size
		req        Request
		want       Size
		undersized bool
	}{
		{
			name: "no request returns source size",
			orig: Size{Width: 1000, Height: 500},
			req:  Request{},
			want: Size{Width: 1000, Height: 500},
		},
		{
			name: "width only derives height from aspect ratio",
			orig: Size{Width: 1000, Height: 500},
			req:  Request{Width: Px(400)},
			want: Size{Width: 400, Height: 200},
		},
		{
			name: "height only derives width from aspect ratio",
			orig: Size{Width: 1000, Height: 500},
			req:  Request{Height: Px(100)},
			want: Size{Width: 200, Height: 100},
		},
		{
			name: "both axes honored even when ratio differs",
			orig: Size{Width: 1000, Height: 500},
			req:  Request{Width: Px(300), Height: Px(100)},
			want: Size{Width: 300, Height: 100},
		},
		{
			name:       "oversized width request caps at source size",
			orig:       Size{Width: 1000, Height: 500},
			req:        Request{Width: Px(2000)},
			want:       Size{Width: 1000, Height: 500},
			undersized: true,
		},
		{
			name:       "oversized wide box saturates source width",
			orig:       Size{Width: 1000, Height: 500},
			req:        Request{Width: Px(3000), Height: Px(200)},
			want:       Size{Width: 1000, Height: 1000.0 / 15.0},
			undersized: true,
		},
		{
			name:       "oversized tall box saturates source height",
			orig:       Size{Width: 1000, Height: 500},
			req:        Request{Width: Px(400), Height: Px(3000)},
			want:       Size{Width: 500.0 * (400.0 / 3000.0), Height: 500},
			undersized: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, undersized, err := Resolve(tc.orig, tc.req)
			if err != nil {
				t.Fatalf("Resolve returned error: %v", err)
			}
			if !almostEqual(got.Width, tc.want.Width) || !almostEqual(got.Height, tc.want.Height) {
				t.Fatalf("expected %+v, got %+v", tc.want, got)
			}
			if undersized != tc.undersized {
				t.Fatalf("expected undersized=%v, got %v", tc.undersized, undersized)
			}
		})
	}
}

func TestResolveRejectsInvalidSource(t *testing.T) {
	if _, _, err := Resolve(Size{Width: 0, Height: 100}, Request{Width: Px(10)}); err == nil {
		t.Fatal("expected error for zero-width source")
	}
	if _, _, err := Resolve(Size{Width: 100, Height: -1}, Request{}); err == nil {
		t.Fatal("expected error for negative-height source")
	}
}

func TestResolvePreservesAspectWithinOnePixel(t *testing.T) {
	orig := Size{Width: 1234, Height: 771}
	for _, w := range []float64{10, 99, 317, 640, 1233} {
		got, _, err := Resolve(orig, Request{Width: Px(w)})
		if err != nil {
			t.Fatalf("Resolve(%v): %v", w, err)
		}
		wantHeight := w * orig.Height / orig.Width
		if math.Abs(float64(Round(got.Height))-wantHeight) > 1 {
			t.Fatalf("width %v: height %v deviates from aspect ratio by more than a pixel", w, got.Height)
		}
	}
}

func TestResolveNeverUpscales(t *testing.T) {
	orig := Size{Width: 640, Height: 480}
	reqs := []Request{
		{Width: Px(641)},
		{Height: Px(10000)},
		{Width: Px(2000), Height: Px(2000)},
		{Width: Px(99999), Height: Px(3)},
	}
	for _, req := range reqs {
		got, undersized, err := Resolve(orig, req)
		if err != nil {
			t.Fatalf("Resolve(%+v): %v", req, err)
		}
		if !undersized {
			t.Fatalf("Resolve(%+v): expected undersized flag", req)
		}
		if got.Width > orig.Width+1e-9 || got.Height > orig.Height+1e-9 {
			t.Fatalf("Resolve(%+v) upscaled to %+v", req, got)
		}
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
