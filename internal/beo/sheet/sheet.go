package sheet

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"
	"os"
	"strings"

	"github.com/signintech/gopdf"

	"ms-venue-booking/internal/config"
	"ms-venue-booking/internal/models"
)

var ErrFontMissing = errors.New("sheet font not found")

const (
	marginX    = 40.0
	pageBottom = 790.0
	lineHeight = 16.0
)

// Renderer prints BEO sheets as A4 PDFs.
type Renderer struct {
	FontPath string
	BaseURL  string
}

func NewRenderer(cfg config.SheetConfig, publicBaseURL string) *Renderer {
	return &Renderer{FontPath: cfg.FontPath, BaseURL: publicBaseURL}
}

func (r *Renderer) Render(o *models.Order, beos []models.Beo) ([]byte, error) {
	if _, err := os.Stat(r.FontPath); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrFontMissing, r.FontPath)
	}

	pdf := &gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	pdf.AddPage()

	if err := pdf.AddTTFFont("dejavu", r.FontPath); err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}
	if err := pdf.SetFont("dejavu", "", 16); err != nil {
		return nil, fmt.Errorf("failed to set font: %w", err)
	}

	p := &page{pdf: pdf}
	p.header(o)

	qr, err := QRCode(OrderURL(r.BaseURL, o.ID), 256)
	if err == nil {
		p.qr(qr)
	}

	_ = pdf.SetFont("dejavu", "", 11)
	p.orderInfo(o)
	p.schedules(o.Schedules)
	p.beos(beos)

	var buf bytes.Buffer
	if err := pdf.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return buf.Bytes(), nil
}

type page struct {
	pdf *gopdf.GoPdf
}

func (p *page) line(text string) {
	if p.pdf.GetY()+lineHeight > pageBottom {
		p.pdf.AddPage()
		p.pdf.SetY(40)
	}
	p.pdf.SetX(marginX)
	p.pdf.Cell(nil, text)
	p.pdf.Br(lineHeight)
}

func (p *page) gap() {
	p.pdf.Br(lineHeight / 2)
}

func (p *page) header(o *models.Order) {
	p.pdf.SetY(40)
	p.line("BANQUET EVENT ORDER")
	p.line(o.EventName)
}

// qr sits in the top right corner and does not move the cursor.
func (p *page) qr(data []byte) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return
	}
	_ = p.pdf.ImageFrom(img, 470, 30, &gopdf.Rect{W: 90, H: 90})
}

func (p *page) orderInfo(o *models.Order) {
	p.pdf.SetY(130)
	customer := ""
	if o.Customer != nil {
		customer = o.Customer.Organizer
		if o.Customer.ContactPerson != "" {
			customer += " (" + o.Customer.ContactPerson + ")"
		}
	}
	venues := make([]string, 0, len(o.Venues))
	for _, v := range o.Venues {
		venues = append(venues, v.Name)
	}
	info := []struct {
		Label string
		Value string
	}{
		{"Order", o.ID},
		{"Customer", customer},
		{"Dates", o.StartDate.Format(models.DateLayout) + " to " + o.EndDate.Format(models.DateLayout)},
		{"Venues", strings.Join(venues, ", ")},
		{"Status", o.Status.Label()},
		{"BEO status", o.StatusBeo.Label()},
	}
	for _, item := range info {
		p.line(item.Label + ": " + item.Value)
	}
	if o.Notes != "" {
		p.line("Notes: " + o.Notes)
	}
	p.gap()
}

func (p *page) schedules(rows []models.Schedule) {
	if len(rows) == 0 {
		return
	}
	p.line("SCHEDULE")
	for _, s := range rows {
		when := s.StartDate.Format(models.DateLayout)
		if !s.EndDate.Equal(s.StartDate) {
			when += " to " + s.EndDate.Format(models.DateLayout)
		}
		text := fmt.Sprintf("%s  %s-%s", when, s.TimeStart, s.TimeEnd)
		if label := s.Function.Label(); label != "" {
			text += "  " + label
		}
		if s.People > 0 {
			text += fmt.Sprintf("  %d pax", s.People)
		}
		if s.Setup != "" {
			text += "  setup: " + s.Setup
		}
		p.line(text)
	}
	p.gap()
}

func (p *page) beos(beos []models.Beo) {
	p.line("DEPARTMENTS")
	if len(beos) == 0 {
		p.line("No department assignments yet.")
		return
	}
	for i, b := range beos {
		dept := b.DepartmentID
		if b.Department != nil {
			dept = b.Department.Name
		}
		p.line(fmt.Sprintf("%d. %s", i+1, dept))
		if b.Package != nil {
			p.line("   Package: " + b.Package.Name + " @ " + b.Package.Price.StringFixed(2))
		}
		if b.User != nil {
			p.line("   PIC: " + b.User.Name)
		}
		if b.Notes != "" {
			p.line("   " + b.Notes)
		}
		if n := len(b.Attachments); n > 0 {
			p.line(fmt.Sprintf("   %d attachment(s)", n))
		}
	}
}
