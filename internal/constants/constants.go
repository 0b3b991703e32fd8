package constants

const USER_AGENT = "numberclassifier/0.1.0 (+https://github.com/Amund211/numberclassifier)"
