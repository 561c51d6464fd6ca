package session

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/catalog"
	"github.com/xenking/storefront/internal/domain/delivery"
	"github.com/xenking/storefront/internal/domain/pricing"
	"github.com/xenking/storefront/internal/domain/settings"
)

// Encode serializes s to JSON.
func Encode(s *State) []byte {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("id")
	e.Str(s.ID)
	e.FieldStart("lines")
	e.ArrStart()
	for _, l := range s.Lines {
		encodeLine(&e, l)
	}
	e.ArrEnd()
	e.FieldStart("contact")
	e.ObjStart()
	e.FieldStart("name")
	e.Str(s.Contact.Name)
	e.FieldStart("phone")
	e.Str(s.Contact.Phone)
	e.FieldStart("email")
	e.Str(s.Contact.Email)
	e.FieldStart("address")
	e.Str(s.Contact.Address)
	e.FieldStart("notes")
	e.Str(s.Contact.Notes)
	e.ObjEnd()
	e.FieldStart("fulfillment")
	e.Str(string(s.Fulfillment))
	e.FieldStart("payment")
	e.Str(string(s.Payment))
	e.FieldStart("appliedCode")
	e.Str(s.AppliedCode)
	e.FieldStart("zone")
	if s.Zone != nil {
		encodeZone(&e, *s.Zone)
	} else {
		e.Null()
	}
	e.FieldStart("customerId")
	e.Str(s.CustomerID)
	e.FieldStart("updatedAt")
	e.Str(s.UpdatedAt.UTC().Format(time.RFC3339Nano))
	e.ObjEnd()
	return e.Bytes()
}

func encodeLine(e *jx.Encoder, l cart.Line) {
	p := l.Product
	e.ObjStart()
	e.FieldStart("product")
	e.ObjStart()
	e.FieldStart("id")
	e.Str(p.ID)
	e.FieldStart("category")
	e.Str(p.Category)
	e.FieldStart("brand")
	e.Str(p.Brand)
	e.FieldStart("name")
	e.Str(p.Name)
	e.FieldStart("strain")
	e.Str(p.Strain)
	e.FieldStart("potency")
	e.Float64(p.Potency)
	e.FieldStart("variants")
	e.ArrStart()
	for _, v := range p.Variants {
		encodeVariant(e, v)
	}
	e.ArrEnd()
	e.FieldStart("stock")
	e.Int(p.Stock)
	e.FieldStart("published")
	e.Bool(p.Published)
	e.FieldStart("description")
	e.Str(p.Description)
	e.FieldStart("imageUrl")
	e.Str(p.ImageURL)
	e.ObjEnd()
	e.FieldStart("variant")
	encodeVariant(e, l.Variant)
	e.FieldStart("quantity")
	e.Int(l.Quantity)
	e.ObjEnd()
}

func encodeVariant(e *jx.Encoder, v catalog.Variant) {
	e.ObjStart()
	e.FieldStart("label")
	e.Str(v.Label)
	e.FieldStart("price")
	e.Str(v.Price.String())
	e.FieldStart("weight")
	e.Float64(v.Weight)
	e.FieldStart("stock")
	e.Int(v.Stock)
	e.ObjEnd()
}

func encodeZone(e *jx.Encoder, z delivery.Zone) {
	e.ObjStart()
	e.FieldStart("name")
	e.Str(z.Name)
	e.FieldStart("lat")
	e.Float64(z.Center.Lat)
	e.FieldStart("lon")
	e.Float64(z.Center.Lon)
	e.FieldStart("radiusMiles")
	e.Float64(z.RadiusMiles)
	e.FieldStart("active")
	e.Bool(z.Active)
	e.FieldStart("fee")
	e.Str(z.Fee.String())
	e.FieldStart("minOrder")
	e.Str(z.MinOrder.String())
	e.ObjEnd()
}

// Decode parses data produced by Encode. Unknown fields are skipped.
func Decode(data []byte) (*State, error) {
	s := &State{}
	d := jx.DecodeBytes(data)
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "id":
			s.ID, err = d.Str()
		case "lines":
			err = d.Arr(func(d *jx.Decoder) error {
				l, err := decodeLine(d)
				if err != nil {
					return err
				}
				s.Lines = append(s.Lines, l)
				return nil
			})
		case "contact":
			err = d.ObjBytes(func(d *jx.Decoder, key []byte) error {
				var err error
				switch string(key) {
				case "name":
					s.Contact.Name, err = d.Str()
				case "phone":
					s.Contact.Phone, err = d.Str()
				case "email":
					s.Contact.Email, err = d.Str()
				case "address":
					s.Contact.Address, err = d.Str()
				case "notes":
					s.Contact.Notes, err = d.Str()
				default:
					err = d.Skip()
				}
				return err
			})
		case "fulfillment":
			var v string
			v, err = d.Str()
			s.Fulfillment = pricing.Fulfillment(v)
		case "payment":
			var v string
			v, err = d.Str()
			s.Payment = settings.PaymentMethod(v)
		case "appliedCode":
			s.AppliedCode, err = d.Str()
		case "zone":
			if d.Next() == jx.Null {
				err = d.Null()
				break
			}
			var z delivery.Zone
			z, err = decodeZone(d)
			s.Zone = &z
		case "customerId":
			s.CustomerID, err = d.Str()
		case "updatedAt":
			var v string
			if v, err = d.Str(); err == nil {
				s.UpdatedAt, err = time.Parse(time.RFC3339Nano, v)
			}
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "field %s", key)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode session")
	}
	return s, nil
}

func decodeLine(d *jx.Decoder) (cart.Line, error) {
	var l cart.Line
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "product":
			l.Product, err = decodeProduct(d)
		case "variant":
			l.Variant, err = decodeVariant(d)
		case "quantity":
			l.Quantity, err = d.Int()
		default:
			err = d.Skip()
		}
		return err
	})
	return l, err
}

func decodeProduct(d *jx.Decoder) (catalog.Product, error) {
	var p catalog.Product
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "id":
			p.ID, err = d.Str()
		case "category":
			p.Category, err = d.Str()
		case "brand":
			p.Brand, err = d.Str()
		case "name":
			p.Name, err = d.Str()
		case "strain":
			p.Strain, err = d.Str()
		case "potency":
			p.Potency, err = d.Float64()
		case "variants":
			err = d.Arr(func(d *jx.Decoder) error {
				v, err := decodeVariant(d)
				if err != nil {
					return err
				}
				p.Variants = append(p.Variants, v)
				return nil
			})
		case "stock":
			p.Stock, err = d.Int()
		case "published":
			p.Published, err = d.Bool()
		case "description":
			p.Description, err = d.Str()
		case "imageUrl":
			p.ImageURL, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	})
	return p, err
}

func decodeVariant(d *jx.Decoder) (catalog.Variant, error) {
	var v catalog.Variant
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "label":
			v.Label, err = d.Str()
		case "price":
			v.Price, err = decodeDecimal(d)
		case "weight":
			v.Weight, err = d.Float64()
		case "stock":
			v.Stock, err = d.Int()
		default:
			err = d.Skip()
		}
		return err
	})
	return v, err
}

func decodeZone(d *jx.Decoder) (delivery.Zone, error) {
	var z delivery.Zone
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "name":
			z.Name, err = d.Str()
		case "lat":
			z.Center.Lat, err = d.Float64()
		case "lon":
			z.Center.Lon, err = d.Float64()
		case "radiusMiles":
			z.RadiusMiles, err = d.Float64()
		case "active":
			z.Active, err = d.Bool()
		case "fee":
			z.Fee, err = decodeDecimal(d)
		case "minOrder":
			z.MinOrder, err = decodeDecimal(d)
		default:
			err = d.Skip()
		}
		return err
	})
	return z, err
}

func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	s, err := d.Str()
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(s)
}
