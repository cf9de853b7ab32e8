package auth

import (
	"fmt"
	"io"
	"strings"
)

// ShowAPIKeyGuide writes where to find the API key of a vendor
func ShowAPIKeyGuide(w io.Writer, vendor Vendor) {
	fmt.Fprintln(w, strings.Repeat("=", 60))
	switch vendor {
	case VendorOctopus:
		fmt.Fprintln(w, "OCTOPUS ENERGY API KEY")
		fmt.Fprintln(w, strings.Repeat("=", 60))
		fmt.Fprintln(w, "1. Log in at https://octopus.energy/dashboard/")
		fmt.Fprintln(w, "2. Open Personal details > API access")
		fmt.Fprintln(w, "3. Copy the key starting with sk_live_")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "The same page lists your MPAN and meter serial number.")
		fmt.Fprintln(w, "Your account number (A-XXXXXXXX) is enough if you only have one meter.")
	case VendorMyenergi:
		fmt.Fprintln(w, "MYENERGI HUB API KEY")
		fmt.Fprintln(w, strings.Repeat("=", 60))
		fmt.Fprintln(w, "1. Log in at https://myaccount.myenergi.com/")
		fmt.Fprintln(w, "2. Open Location options > Location admin > Hub & Devices")
		fmt.Fprintln(w, "3. Generate a new API key for your hub")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "The hub serial number is printed on the hub and shown in the app.")
	}
	fmt.Fprintln(w, strings.Repeat("=", 60))
}
