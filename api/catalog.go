package api

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"kairos/ent"
)

type codeRequest struct {
	Code string `json:"code"`
}

func cleanProduct(in *ent.ProductInput) {
	in.Name = clean(in.Name)
	in.Barcode = clean(in.Barcode)
}

func cleanCustomer(in *ent.CustomerInput) {
	in.Name = clean(in.Name)
	in.Phone = clean(in.Phone)
	in.Email = clean(in.Email)
	in.TaxID = clean(in.TaxID)
	in.Address = clean(in.Address)
}

func (s *Server) listProducts(c *fiber.Ctx) error {
	var (
		ps  []ent.Product
		err error
	)
	if q := clean(c.Query("q")); q != "" {
		ps, err = s.store.SearchProducts(c.UserContext(), q)
	} else {
		ps, err = s.store.ListProducts(c.UserContext())
	}
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "products": ps})
}

func (s *Server) createProduct(c *fiber.Ctx) error {
	var in ent.ProductInput
	err := decode(c, &in)
	if err != nil {
		return err
	}
	cleanProduct(&in)

	p, err := s.store.CreateProduct(c.UserContext(), in)
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "product created",
		"product": p,
	})
}

func (s *Server) getProduct(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}

	p, err := s.store.ProductByID(c.UserContext(), id)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "product": p})
}

func (s *Server) updateProduct(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}

	var in ent.ProductInput
	err = decode(c, &in)
	if err != nil {
		return err
	}
	cleanProduct(&in)

	p, err := s.store.UpdateProduct(c.UserContext(), id, in)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "message": "product updated", "product": p})
}

func (s *Server) deleteProduct(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}

	err = s.store.DeleteProduct(c.UserContext(), id)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "message": "product deleted"})
}

// lookupProduct resolves an exact code from the stock screen.
func (s *Server) lookupProduct(c *fiber.Ctx) error {
	var in codeRequest
	err := decode(c, &in)
	if err != nil {
		return err
	}

	l, err := s.store.LookupProduct(c.UserContext(), clean(in.Code))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "product": l.Product, "weighable": l.Weighable})
}

func (s *Server) listWeighables(c *fiber.Ctx) error {
	ws, err := s.store.ListWeighables(c.UserContext())
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "weighables": ws})
}

func (s *Server) listWeighableCandidates(c *fiber.Ctx) error {
	ps, err := s.store.ListWeighableCandidates(c.UserContext())
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "products": ps})
}

func (s *Server) createWeighable(c *fiber.Ctx) error {
	var in ent.WeighableInput
	err := decode(c, &in)
	if err != nil {
		return err
	}
	in.CustomCode = clean(in.CustomCode)

	w, err := s.store.CreateWeighable(c.UserContext(), in)
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"success":   true,
		"message":   "weighable product registered",
		"weighable": w,
	})
}

func (s *Server) deleteWeighable(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}

	err = s.store.DeleteWeighable(c.UserContext(), id)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "message": "weighable product removed"})
}

func (s *Server) listCustomers(c *fiber.Ctx) error {
	cs, err := s.store.ListCustomers(c.UserContext())
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "customers": cs})
}

func (s *Server) createCustomer(c *fiber.Ctx) error {
	var in ent.CustomerInput
	err := decode(c, &in)
	if err != nil {
		return err
	}
	cleanCustomer(&in)

	cu, err := s.store.CreateCustomer(c.UserContext(), in)
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"success":  true,
		"message":  "customer created",
		"customer": cu,
	})
}

func (s *Server) getCustomer(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}

	cu, err := s.store.CustomerByID(c.UserContext(), id)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "customer": cu})
}

func (s *Server) updateCustomer(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}

	var in ent.CustomerInput
	err = decode(c, &in)
	if err != nil {
		return err
	}
	cleanCustomer(&in)

	cu, err := s.store.UpdateCustomer(c.UserContext(), id, in)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "message": "customer updated", "customer": cu})
}

func (s *Server) deleteCustomer(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}

	err = s.store.DeleteCustomer(c.UserContext(), id)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "message": "customer deleted"})
}
