// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package variables

// Content is the typed content of one section type.
type Content interface {
	SectionType() SectionType
}

// HeroContent is the top banner of a page.
type HeroContent struct {
	Headline    string `json:"headline"`
	Subheadline string `json:"subheadline"`
	CTAText     string `json:"ctaText"`
	CTALink     string `json:"ctaLink"`
	Image       string `json:"image,omitempty"`
}

// Feature is one item of a features grid.
type Feature struct {
	Icon        string `json:"icon,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// FeaturesContent is a titled grid of features.
type FeaturesContent struct {
	Title    string    `json:"title"`
	Subtitle string    `json:"subtitle"`
	Features []Feature `json:"features"`
}

// CTAContent is a call-to-action block with up to two buttons.
type CTAContent struct {
	Title               string `json:"title"`
	Description         string `json:"description"`
	ButtonText          string `json:"buttonText"`
	ButtonLink          string `json:"buttonLink"`
	SecondaryButtonText string `json:"secondaryButtonText,omitempty"`
	SecondaryButtonLink string `json:"secondaryButtonLink,omitempty"`
}

// Link is a labelled navigation or footer link.
type Link struct {
	Label string `json:"label"`
	Href  string `json:"href"`
}

// HeaderContent is the site header: logo, navigation and an optional button.
type HeaderContent struct {
	Logo       string `json:"logo,omitempty"`
	LogoText   string `json:"logoText"`
	Navigation []Link `json:"navigation"`
	CTAText    string `json:"ctaText,omitempty"`
	CTALink    string `json:"ctaLink,omitempty"`
}

// Testimonial is one customer quote.
type Testimonial struct {
	Quote  string `json:"quote"`
	Author string `json:"author"`
	Role   string `json:"role,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

// TestimonialsContent is a titled list of testimonials.
type TestimonialsContent struct {
	Title        string        `json:"title"`
	Subtitle     string        `json:"subtitle"`
	Testimonials []Testimonial `json:"testimonials"`
}

// ContactContent lists the site's contact details.
type ContactContent struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

// SocialLink points at a social network profile.
type SocialLink struct {
	Platform string `json:"platform"`
	URL      string `json:"url"`
}

// FooterContent is the site footer.
type FooterContent struct {
	CompanyName string       `json:"companyName"`
	Description string       `json:"description"`
	Links       []Link       `json:"links"`
	SocialLinks []SocialLink `json:"socialLinks"`
	Copyright   string       `json:"copyright"`
}

func (*HeroContent) SectionType() SectionType         { return Hero }
func (*FeaturesContent) SectionType() SectionType     { return Features }
func (*CTAContent) SectionType() SectionType          { return CTA }
func (*HeaderContent) SectionType() SectionType       { return Header }
func (*TestimonialsContent) SectionType() SectionType { return Testimonials }
func (*ContactContent) SectionType() SectionType      { return Contact }
func (*FooterContent) SectionType() SectionType       { return Footer }
