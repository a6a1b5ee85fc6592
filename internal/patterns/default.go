package patterns

// Default returns the built-in pattern table. Entry order is significant:
// more specific categories come before broader ones so that, for example,
// a coffee chain is not swallowed by a generic dining pattern.
func Default() Table {
	return New([]Entry{
		{Category: "Income", Substrings: []string{
			"PAYROLL", "DIRECT DEP", "DIRECTDEP", "DIR DEP", "SALARY",
			"IRS TREAS", "TAX REF", "SSA TREAS", "PENSION", "DIVIDEND",
			"INTEREST PAYMENT", "INT EARNED", "REIMBURSEMENT", "CASHBACK",
		}},
		{Category: "Transfers", Substrings: []string{
			"TRANSFER", "XFER", "ZELLE", "VENMO", "CASH APP", "WISE",
			"WIRE IN", "WIRE OUT", "TO SAVINGS", "FROM SAVINGS",
			"CC PAYMENT", "CARD PAYMENT", "AUTOPAY PAYMENT", "E-PAYMENT",
		}},
		{Category: "Coffee", Substrings: []string{
			"STARBUCKS", "DUNKIN", "PEETS", "PEET'S", "BLUE BOTTLE",
			"PHILZ", "CARIBOU", "TIM HORTONS", "COSTA COFFEE", "COFFEE",
			"ESPRESSO", "CAFE", "ROASTERS",
		}},
		{Category: "Groceries", Substrings: []string{
			"WHOLE FOODS", "TRADER JOE", "SAFEWAY", "KROGER", "ALBERTSONS",
			"ALDI", "PUBLIX", "WEGMANS", "SPROUTS", "FOOD LION", "H-E-B",
			"HEB ", "RALPHS", "VONS", "GIANT", "STOP & SHOP", "MEIJER",
			"WINCO", "LIDL", "INSTACART", "GROCERY", "SUPERMARKET", "MARKET",
		}},
		{Category: "Dining", Substrings: []string{
			"MCDONALD", "CHIPOTLE", "CHICK-FIL-A", "TACO BELL", "WENDY",
			"BURGER KING", "SUBWAY", "PANERA", "DOMINO", "PIZZA HUT",
			"PAPA JOHN", "KFC", "POPEYES", "FIVE GUYS", "SHAKE SHACK",
			"IN-N-OUT", "DOORDASH", "GRUBHUB", "UBER EATS", "UBEREATS",
			"POSTMATES", "SEAMLESS", "RESTAURANT", "PIZZA", "PIZZERIA",
			"SUSHI", "TAQUERIA", "GRILL", "DINER", "BISTRO", "BAKERY",
			"DELI", "BBQ", "RAMEN", "NOODLE", "PHO ", "THAI", "BAR & ",
		}},
		{Category: "Gas", Substrings: []string{
			"SHELL", "CHEVRON", "EXXON", "MOBIL", "BP ", "ARCO", "CITGO",
			"VALERO", "SUNOCO", "MARATHON", "PHILLIPS 66", "CONOCO",
			"TEXACO", "SPEEDWAY", "WAWA", "RACETRAC", "QUIKTRIP", "FUEL",
			"GAS STATION", "PETROL",
		}},
		{Category: "Transportation", Substrings: []string{
			"UBER", "LYFT", "TAXI", "METRO", "TRANSIT", "MTA", "BART",
			"CALTRAIN", "AMTRAK", "PARKING", "PARKMOBILE", "TOLL", "EZPASS",
			"E-ZPASS", "FASTRAK", "DMV", "JIFFY LUBE", "AUTOZONE",
			"O'REILLY AUTO", "PEP BOYS", "CAR WASH",
		}},
		{Category: "Travel", Substrings: []string{
			"AIRLINE", "AIRLINES", "AIRWAYS", "DELTA AIR", "UNITED",
			"SOUTHWES", "AMERICAN AIR", "ALASKA AIR", "JETBLUE", "FRONTIER",
			"SPIRIT AIR", "MARRIOTT", "HILTON", "HYATT", "AIRBNB", "VRBO",
			"EXPEDIA", "BOOKING.COM", "PRICELINE", "KAYAK", "HOTEL",
			"MOTEL", "RESORT", "HERTZ", "AVIS", "ENTERPRISE RENT", "BUDGET RENT",
		}},
		{Category: "Subscriptions", Substrings: []string{
			"NETFLIX", "SPOTIFY", "HULU", "DISNEY PLUS", "DISNEY+", "HBO",
			"MAX.COM", "PARAMOUNT", "PEACOCK", "AUDIBLE", "KINDLE",
			"YOUTUBE PREMIUM", "APPLE MUSIC", "ICLOUD", "DROPBOX",
			"ADOBE", "MICROSOFT 365", "GITHUB", "PATREON", "SUBSTACK",
			"PRIME VIDEO", "MEMBERSHIP", "SUBSCRIPTION",
		}},
		{Category: "Entertainment", Substrings: []string{
			"AMC ", "CINEMARK", "REGAL", "FANDANGO", "TICKETMASTER",
			"STUBHUB", "LIVE NATION", "STEAM", "PLAYSTATION", "XBOX",
			"NINTENDO", "TWITCH", "CINEMA", "THEATRE", "THEATER", "BOWLING",
			"ARCADE", "MUSEUM", "ZOO ",
		}},
		{Category: "Shopping", Substrings: []string{
			"AMAZON", "AMZN", "WALMART", "TARGET", "COSTCO", "SAM'S CLUB",
			"BEST BUY", "EBAY", "ETSY", "WAYFAIR", "IKEA", "HOME DEPOT",
			"LOWES", "LOWE'S", "MACY", "NORDSTROM", "KOHLS", "KOHL'S",
			"TJ MAXX", "TJMAXX", "MARSHALLS", "ROSS ", "OLD NAVY", "GAP ",
			"BANANA REPUBLIC", "NIKE", "ADIDAS", "REI ", "ZARA", "H&M",
			"UNIQLO", "SEPHORA", "ULTA", "BATH & BODY", "DOLLAR TREE",
			"DOLLAR GENERAL", "FIVE BELOW", "MICHAELS", "HOBBY LOBBY",
		}},
		{Category: "Utilities", Substrings: []string{
			"COMCAST", "XFINITY", "VERIZON", "AT&T", "T-MOBILE", "SPRINT",
			"SPECTRUM", "COX COMM", "CENTURYLINK", "PG&E", "PGANDE",
			"CON EDISON", "CONED", "DUKE ENERGY", "NATIONAL GRID",
			"ELECTRIC", "WATER DISTRICT", "WATER DEPT", "SEWER",
			"INTERNET", "WIRELESS", "UTILITY", "UTILITIES", "POWER & LIGHT",
		}},
		{Category: "Housing", Substrings: []string{
			"RENT PAYMENT", "RENTPAYMENT", "MORTGAGE", "PROPERTY MGMT",
			"PROPERTY MANAGEMENT", "APARTMENT", "APTS", "REALTY", "HOA ",
			"ESCROW", "LANDLORD",
		}},
		{Category: "Insurance", Substrings: []string{
			"GEICO", "PROGRESSIVE", "ALLSTATE", "STATE FARM", "FARMERS INS",
			"LIBERTY MUTUAL", "NATIONWIDE", "USAA", "AETNA", "CIGNA",
			"ANTHEM", "BLUE CROSS", "BLUE SHIELD", "METLIFE", "INSURANCE",
		}},
		{Category: "Healthcare", Substrings: []string{
			"CVS", "WALGREENS", "RITE AID", "PHARMACY", "KAISER",
			"CLINIC", "HOSPITAL", "MEDICAL", "DENTAL", "ORTHODON",
			"OPTOMETR", "VISION CENTER", "URGENT CARE", "LABCORP",
			"QUEST DIAGNOSTICS", "DERMATOLOG",
		}},
		{Category: "Fitness", Substrings: []string{
			"PLANET FITNESS", "24 HOUR FITNESS", "EQUINOX", "CRUNCH",
			"LA FITNESS", "ANYTIME FITNESS", "ORANGETHEORY", "CROSSFIT",
			"PELOTON", "CLASSPASS", "YOGA", "PILATES", "GYM", "FITNESS",
		}},
		{Category: "Personal Care", Substrings: []string{
			"SALON", "BARBER", "SPA ", "NAILS", "HAIRCUT", "SUPERCUTS",
			"GREAT CLIPS", "MASSAGE",
		}},
		{Category: "Education", Substrings: []string{
			"UNIVERSITY", "COLLEGE", "TUITION", "UDEMY", "COURSERA",
			"SKILLSHARE", "MASTERCLASS", "KHAN ACADEMY", "CHEGG",
			"TEXTBOOK", "CAMPUS", "STUDENT LOAN",
		}},
		{Category: "Pets", Substrings: []string{
			"PETCO", "PETSMART", "CHEWY", "VETERINAR", "VET CLINIC",
			"ANIMAL HOSPITAL", "PET SUPPL", "GROOMING", "BARKBOX",
		}},
		{Category: "Fees", Substrings: []string{
			"OVERDRAFT", "SERVICE FEE", "SERVICE CHARGE", "MONTHLY FEE",
			"ATM FEE", "LATE FEE", "ANNUAL FEE", "FOREIGN TRANSACTION",
			"NSF FEE", "WIRE FEE", "MAINTENANCE FEE", "PENALTY",
		}},
	})
}
