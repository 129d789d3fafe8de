package ops

// User-facing messages. Clients match on these strings, so they must not
// change.
const (
	MsgBodyUnreadable = "Error reading request body."
	MsgInvalidJSON    = "Invalid JSON payload."
	MsgNeedObjects    = "Please provide both 'obj1' and 'obj2' in the request body."
	MsgNeedArrays     = "Please provide two arrays in the request body using keys 'array1' and 'array2'."
	MsgNeedArray      = "Please provide an array in the request body using the key 'array'."
	MsgNeedProperty   = "Please provide a dot-separated property string in the request body using the key 'property'."
	MsgNeedGroupKey   = "Please provide an array under 'array' and a grouping key under 'key' in the request body."
	MsgUnsortable     = "Sorting is not supported for arrays of objects or arrays."
	MsgNeedZip        = "Please provide a ZIP file in the request body (Base64-encoded)."
	MsgZipPrefix      = "Error processing ZIP file: "
)
