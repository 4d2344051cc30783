// Command storefront is a terminal client for the shop: it keeps a local
// cart mirrored against the backend, manages the session credential and
// drives checkout through payment confirmation.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/example/lureclo-storefront/internal/api"
	"github.com/example/lureclo-storefront/internal/cart"
	"github.com/example/lureclo-storefront/internal/checkout"
	"github.com/example/lureclo-storefront/internal/config"
	"github.com/example/lureclo-storefront/internal/models"
	"github.com/example/lureclo-storefront/internal/payment"
	"github.com/example/lureclo-storefront/internal/session"
	"github.com/example/lureclo-storefront/internal/storage"
)

type app struct {
	client    *api.Client
	session   *session.Manager
	cart      *cart.Store
	confirmer payment.Confirmer
}

func main() {
	log.SetFlags(0)

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg := config.Load()
	store, err := storage.New(cfg.StateDir)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}

	client := api.NewClient(cfg.APIBaseURL, cfg.HTTPTimeout)
	sess := session.NewManager(client, store)
	client.SetCredentials(sess)

	a := &app{
		client:    client,
		session:   sess,
		cart:      cart.New(client, store),
		confirmer: payment.NewClient(cfg.PaymentBaseURL, cfg.HTTPTimeout),
	}

	ctx := context.Background()
	if err := a.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		log.Fatalf("error: %v", err)
	}
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "cart":
		return a.listCart()
	case "add":
		return a.addItem(ctx, args)
	case "remove":
		return a.removeItem(ctx, args)
	case "qty":
		return a.updateQuantity(ctx, args)
	case "clear":
		a.cart.Clear()
		fmt.Println("cart cleared")
		return nil
	case "refresh":
		if err := a.cart.Refresh(ctx); err != nil {
			return err
		}
		return a.listCart()
	case "checkout":
		return a.checkout(ctx, args)
	case "order":
		return a.showOrder(ctx, args)
	case "login":
		return a.login(ctx, args)
	case "logout":
		if err := a.session.Logout(); err != nil {
			return err
		}
		fmt.Println("logged out")
		return nil
	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *app) listCart() error {
	items := a.cart.Items()
	if len(items) == 0 {
		fmt.Println("Your cart is currently empty.")
		return nil
	}
	for _, item := range items {
		fmt.Printf("%s  %s (%s) x%d  %.2f  [%s]\n",
			item.LocalID, item.Name, item.Size, item.Quantity, item.LineTotal(), item.ProductID)
	}
	fmt.Printf("subtotal: %.2f\n", a.cart.Subtotal())
	return nil
}

func (a *app) addItem(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	productID := fs.String("product", "", "product id")
	sizeID := fs.String("size-id", "", "size id")
	size := fs.String("size", "", "size label")
	name := fs.String("name", "", "product name")
	image := fs.String("image", "", "image URL")
	quantity := fs.Int("n", 1, "quantity")
	price := fs.Float64("price", 0, "unit price")
	fs.Parse(args)

	item, err := a.cart.AddItem(ctx, cart.AddInput{
		ProductID: *productID,
		SizeID:    *sizeID,
		Name:      *name,
		Size:      *size,
		Quantity:  *quantity,
		UnitPrice: *price,
		Image:     *image,
	})
	if err != nil {
		return err
	}
	fmt.Printf("added %s (%s) x%d as %s\n", item.Name, item.Size, item.Quantity, item.LocalID)
	return nil
}

func (a *app) removeItem(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("remove", flag.ExitOnError)
	id := fs.String("id", "", "line item local id")
	fs.Parse(args)

	if err := a.cart.RemoveItem(ctx, *id); err != nil {
		return err
	}
	fmt.Println("removed")
	return nil
}

func (a *app) updateQuantity(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("qty", flag.ExitOnError)
	id := fs.String("id", "", "line item local id")
	quantity := fs.Int("n", 1, "new quantity")
	fs.Parse(args)

	if err := a.cart.UpdateQuantity(ctx, *id, *quantity); err != nil {
		return err
	}
	fmt.Println("updated")
	return nil
}

func (a *app) checkout(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("checkout", flag.ExitOnError)
	form := checkout.Form{}
	fs.StringVar(&form.Email, "email", "", "contact email")
	fs.StringVar(&form.FirstName, "first", "", "first name")
	fs.StringVar(&form.LastName, "last", "", "last name")
	fs.StringVar(&form.Street, "street", "", "street")
	fs.StringVar(&form.Number, "number", "", "street number")
	fs.StringVar(&form.City, "city", "", "city")
	fs.StringVar(&form.State, "state", "", "state")
	fs.StringVar(&form.ZipCode, "zip", "", "zip code")
	fs.StringVar(&form.Country, "country", "Brazil", "country")
	fs.StringVar(&form.Complement, "complement", "", "address complement")
	totals := checkout.Totals{}
	fs.Float64Var(&totals.ShippingCost, "shipping", 0, "shipping cost")
	fs.Float64Var(&totals.Taxes, "taxes", 0, "taxes")
	fs.Parse(args)

	orch := checkout.NewOrchestrator(a.client, a.confirmer)
	result, err := orch.Submit(ctx, form, a.cart.Items(), totals)
	if err != nil {
		var verr *checkout.ValidationError
		if errors.As(err, &verr) {
			fields := make([]string, 0, len(verr.Fields))
			for field := range verr.Fields {
				fields = append(fields, field)
			}
			sort.Strings(fields)
			for _, field := range fields {
				fmt.Printf("  %s: %s\n", field, verr.Fields[field])
			}
			return errors.New("please fill in the missing fields")
		}

		var derr *checkout.PaymentDeclinedError
		if errors.As(err, &derr) {
			// Order and secret are kept; one retry before giving the
			// flow back to the user.
			fmt.Printf("payment failed: %s, retrying once\n", derr.Message)
			result, err = orch.RetryPayment(ctx)
		}
		if err != nil {
			return err
		}
	}

	a.cart.Clear()
	fmt.Printf("order %s confirmed -> %s\n", result.PurchaseID, result.ConfirmationPath)
	return nil
}

func (a *app) showOrder(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("order", flag.ExitOnError)
	id := fs.String("id", "", "purchase id")
	fs.Parse(args)

	purchase, err := a.client.GetPurchase(ctx, *id, models.PurchaseInclude{
		Items:        true,
		Transactions: true,
		Address:      true,
	})
	if err != nil {
		return err
	}

	fmt.Printf("order %s  status=%s  total=%.2f\n", purchase.ID, purchase.Status, purchase.TotalAmount)
	for _, item := range purchase.Items {
		fmt.Printf("  %s (size %s) x%d @ %.2f\n", item.ProductID, item.SizeID, item.Quantity, item.UnitPriceAtPurchase)
	}
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	token := fs.String("token", "", "identity-provider token")
	fs.Parse(args)

	if err := a.session.Login(ctx, *token); err != nil {
		return err
	}
	fmt.Println("logged in")
	return nil
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: storefront <command> [flags]

commands:
  cart                       list the local cart
  add -product ... -size ... add a product to the cart
  remove -id ...             remove a line item
  qty -id ... -n ...         change a line item quantity
  clear                      empty the local cart
  refresh                    refetch the cart from the backend
  checkout -email ...        create the order and confirm payment
  order -id ...              show a purchase
  login -token ...           exchange an identity-provider token
  logout                     clear the stored credential`)
}
