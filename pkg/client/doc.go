// Package client is the Go SDK for the CropChain exchange API.
//
// A Client wraps the exchange's REST surface: crop registration, token
// listing, trade settlement, and the audit chain read endpoints. All methods
// take a context and return typed results; non-2xx responses come back as
// *APIError so callers can branch on the status code.
//
// A full lifecycle looks like this:
//
//	c := client.New("http://localhost:8080")
//
//	// Register a harvest lot. The exchange mints the token atomically.
//	res, err := c.RegisterCrop(ctx, client.RegisterCropRequest{
//	    CropType:     "wheat",
//	    Quantity:     500,
//	    QualityGrade: "A",
//	    MarketID:     "MANDI_DELHI",
//	    FarmerID:     "FARMER_RAMESH",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Put the token up for sale (owner only).
//	if err := c.ListToken(ctx, res.Token.TokenID, "FARMER_RAMESH"); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Buy it. Pricing comes from the exchange's oracle; the settlement
//	// record carries the computed total.
//	settlement, err := c.ExecuteTrade(ctx, res.Token.TokenID, "TRADER_AGROCORP")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(settlement.TotalAmount)
//
//	// Every step above appended to the hash-chained audit trail.
//	verdict, err := c.VerifyAudit(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(verdict.Valid, verdict.Entries)
package client
