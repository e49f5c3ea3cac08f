// Package rulefile reads and writes YAML rule files, checks them against
// loaded types and applies them to a rule configuration engine.
//
// A rule file declares one mapping per type pair:
//
//	version: "1"
//	mappings:
//	  - source: store.Order
//	    target: warehouse.Order
//	    compile: generated        # delegate (default) or generated
//	    case_sensitive: false     # flattening name comparison
//	    flatten: true             # propose rules for unmapped members (default)
//	    members:                  # destination: source
//	      Lines: Items
//	    computed:
//	      - target: CustomerAddressCity
//	        source: Customer.Address.City
//	    values:
//	      Currency: EUR
//	    functions:                # destination: transform name
//	      TotalAmount: TotalAmount
//	    ignore: [Notes]
//	transforms:
//	  - name: TotalAmount
//	    func: TotalAmount
//	    package: member-mapper/store
//
// Sections are applied in a fixed order: ignore, members, values,
// functions, computed. Every section except computed is explicit, so for a
// member listed in several explicit sections the last one applied wins, and
// a computed entry never replaces an explicit one.
package rulefile
