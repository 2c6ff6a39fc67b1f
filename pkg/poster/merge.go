// merge.go - Merge descriptor overrides onto a base descriptor.

package poster

// Merge overlays the non-empty fields of over onto base. A bundle usually
// supplies the event and layout while the attendee arrives separately.
func Merge(base, over Descriptor) Descriptor {
	str := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}

	if over.Canvas.Preset != "" || (over.Canvas.Width > 0 && over.Canvas.Height > 0) {
		base.Canvas = over.Canvas
	}

	e, o := &base.Event, over.Event
	str(&e.Name, o.Name)
	str(&e.StartDate, o.StartDate)
	str(&e.EndDate, o.EndDate)
	str(&e.Location, o.Location)
	str(&e.City, o.City)
	str(&e.Country, o.Country)
	str(&e.LogoURL, o.LogoURL)
	str(&e.HeroURL, o.HeroURL)
	str(&e.BrandColor, o.BrandColor)

	u, ou := &base.User, over.User
	str(&u.Name, ou.Name)
	str(&u.Title, ou.Title)
	str(&u.Company, ou.Company)
	str(&u.PhotoURL, ou.PhotoURL)

	str(&base.Layout, over.Layout)
	return base
}
