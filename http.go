// Copyright 2021 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// HTTP server for dial images

package rotary

import (
	"fmt"
	"image/jpeg"
	"log"
	"math"
	"net/http"

	"github.com/fogleman/gg"
)

const (
	dialSize   = 320 // Width and height of one dial in pixels
	dialMargin = 20
)

// DialServer serves a JPEG image of the dials on /dials.jpg.
func DialServer(port int, dials []*Dial) {
	http.Handle("/dials.jpg", DialHandler(dials))
	url := fmt.Sprintf(":%d", port)
	log.Printf("Starting server on %s", url)
	server := &http.Server{Addr: url}
	log.Fatal(server.ListenAndServe())
}

// DialHandler returns a handler that draws the dials side by side
// as a JPEG image.
func DialHandler(dials []*Dial) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		c := gg.NewContext(len(dials)*dialSize, dialSize)
		c.SetRGB(1, 1, 1)
		c.Clear()
		for i, d := range dials {
			drawDial(c, d, float64(i*dialSize+dialSize/2), float64(dialSize/2))
		}
		err := jpeg.Encode(w, c.Image(), nil)
		if err != nil {
			log.Printf("Error writing image: %v", err)
			w.WriteHeader(http.StatusInternalServerError)
		}
	})
}

// drawDial draws one dial as a knob with a pointer at the current
// position. Detent zero points straight up, and the pointer sweeps
// clockwise as the count increases.
func drawDial(c *gg.Context, d *Dial, x, y float64) {
	p, r := d.Position()
	p = r - p
	radius := float64(dialSize/2 - dialMargin)
	c.SetRGB(0, 0, 0)
	c.SetLineWidth(2)
	c.DrawCircle(x, y, radius)
	c.Stroke()
	length := radius - 10
	radians := float64(p)*2*math.Pi/float64(r) + math.Pi
	px := length*math.Sin(radians) + x
	py := length*math.Cos(radians) + y
	c.SetRGB(0, 0, 1)
	c.SetLineWidth(4)
	c.DrawLine(x, y, px, py)
	c.Stroke()
}
